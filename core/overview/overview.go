// Package overview summarizes the school for the dashboard home page.
package overview

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/subject"
	"github.com/Shin40411/Lms-client/core/user"
)

// Counted lists
const (
	CountClasses            = "classes"
	CountSubjects           = "subjects"
	CountUsers              = "users"
	CountTeachers           = "teachers"
	CountStudents           = "students"
	CountUnassignedStudents = "unassignedStudents"
)

const recentActivity = 10

type Summary struct {
	Counts      map[string]int   `json:"counts"`
	Unavailable []string         `json:"unavailable"` // counts that could not be fetched
	Recent      []activity.Entry `json:"recent"`
}

type Service struct {
	classes  classroom.Repository
	subjects subject.Repository
	users    user.Repository
	activity activity.Repository
	logger   core.Logger
}

func NewService(
	classes classroom.Repository,
	subjects subject.Repository,
	users user.Repository,
	act activity.Repository,
	logger core.Logger,
) *Service {
	return &Service{classes: classes, subjects: subjects, users: users, activity: act, logger: logger}
}

// Summary fetches every count concurrently. A failed count is logged and reported as
// unavailable.
func (svc *Service) Summary(ctx context.Context) Summary {
	counters := map[string]func(ctx context.Context) (int, error){
		CountClasses: func(ctx context.Context) (int, error) {
			p, err := svc.classes.QueryClasses(ctx, "")
			return p.Count, err
		},
		CountSubjects: func(ctx context.Context) (int, error) {
			p, err := svc.subjects.QuerySubjects(ctx, "")
			return p.Count, err
		},
		CountUsers:              svc.countUsers(user.Query{}),
		CountTeachers:           svc.countUsers(user.Query{IsTeacher: user.Bool(true)}),
		CountStudents:           svc.countUsers(user.Query{IsStudent: user.Bool(true)}),
		CountUnassignedStudents: svc.countUsers(classroom.StudentPoolQuery),
	}

	sum := Summary{Counts: make(map[string]int, len(counters)), Unavailable: []string{}, Recent: []activity.Entry{}}
	var mu sync.Mutex
	var g errgroup.Group
	for name, count := range counters {
		name, count := name, count
		g.Go(func() error {
			n, err := count(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("overview: counting %s: %v", name, err), err)
				sum.Unavailable = append(sum.Unavailable, name)
				return nil
			}
			sum.Counts[name] = n
			return nil
		})
	}
	if svc.activity != nil {
		g.Go(func() error {
			entries, err := svc.activity.Recent(ctx, recentActivity)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("overview: recent activity: %v", err), err)
				return nil
			}
			mu.Lock()
			if entries != nil {
				sum.Recent = entries
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(sum.Unavailable)
	return sum
}

func (svc *Service) countUsers(q user.Query) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		p, err := svc.users.QueryUsers(ctx, q)
		return p.Count, err
	}
}
