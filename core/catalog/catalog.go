// Package catalog owns the lists a dashboard session works with: the classes page and the
// teacher and student candidate pools.
//
// Dependents read snapshots and never mutate the lists; Replace is the only mutation, and
// Load re-fetches lists from the upstream API and replaces them wholesale.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/roster"
)

var ErrClosed = errors.New("catalog closed")

type Kind int

const (
	KindClasses Kind = iota
	KindTeachers
	KindStudents
)

var AllKinds = []Kind{KindClasses, KindTeachers, KindStudents}

func (k Kind) String() string {
	switch k {
	case KindClasses:
		return "classes"
	case KindTeachers:
		return "teachers"
	case KindStudents:
		return "students"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type (
	// Collection is one of Classes, TeacherPool or StudentPool.
	Collection interface {
		Kind() Kind
	}

	Classes     core.Page[classroom.Class]
	TeacherPool []roster.Member
	StudentPool []roster.Member
)

func (Classes) Kind() Kind     { return KindClasses }
func (TeacherPool) Kind() Kind { return KindTeachers }
func (StudentPool) Kind() Kind { return KindStudents }

// Snapshot is a copy of the catalog lists.
type Snapshot struct {
	Search   string                     `json:"search"`
	Classes  core.Page[classroom.Class] `json:"classes"`
	Teachers []roster.Member            `json:"teachers"`
	Students []roster.Member            `json:"students"`
}

type Catalog struct {
	classes classroom.Repository
	members classroom.MemberSource
	logger  core.Logger

	mu      sync.RWMutex
	closed  bool
	gens    [3]uint64 // loads started, per kind
	search  string
	current Snapshot
}

func New(classes classroom.Repository, members classroom.MemberSource, logger core.Logger) *Catalog {
	return &Catalog{
		classes: classes,
		members: members,
		logger:  logger,
		current: Snapshot{
			Classes:  core.Page[classroom.Class]{Results: []classroom.Class{}},
			Teachers: []roster.Member{},
			Students: []roster.Member{},
		},
	}
}

func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Search:   c.search,
		Classes:  c.current.Classes.Clone(),
		Teachers: append([]roster.Member{}, c.current.Teachers...),
		Students: append([]roster.Member{}, c.current.Students...),
	}
}

// Replace sets a list. Loads of the same list still in flight are discarded.
func (c *Catalog) Replace(col Collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.gens[col.Kind()]++
	c.replace(col)
	return nil
}

// replace must be called with c.mu held.
func (c *Catalog) replace(col Collection) {
	switch v := col.(type) {
	case Classes:
		c.current.Classes = core.Page[classroom.Class](v).Clone()
	case TeacherPool:
		c.current.Teachers = append([]roster.Member{}, v...)
	case StudentPool:
		c.current.Students = append([]roster.Member{}, v...)
	}
}

// Load re-fetches the given lists (all of them by default) with the queries used to populate
// them, concurrently. A failed fetch is logged and leaves its list as it was. A response is
// applied only if no newer load of its list started meanwhile and the catalog is still open.
func (c *Catalog) Load(ctx context.Context, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gens := make(map[Kind]uint64, len(kinds))
	for _, k := range kinds {
		c.gens[k]++
		gens[k] = c.gens[k]
	}
	search := c.search
	c.mu.Unlock()

	var g errgroup.Group
	for k, gen := range gens {
		k, gen := k, gen
		g.Go(func() error {
			col, err := c.fetch(ctx, k, search)
			if err != nil {
				c.logger.Warn(fmt.Sprintf("catalog: fetching %s: %v", k, err), err)
				return nil
			}
			c.apply(gen, col)
			return nil
		})
	}
	return g.Wait()
}

// Refresh reloads every list.
func (c *Catalog) Refresh(ctx context.Context) {
	_ = c.Load(ctx)
}

// Search sets the class search and reloads the classes.
func (c *Catalog) Search(ctx context.Context, search string) error {
	c.mu.Lock()
	c.search = core.CleanString(search)
	c.mu.Unlock()
	return c.Load(ctx, KindClasses)
}

// Close discards every load still in flight; the catalog cannot be loaded anymore.
func (c *Catalog) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Catalog) fetch(ctx context.Context, k Kind, search string) (Collection, error) {
	switch k {
	case KindClasses:
		page, err := c.classes.QueryClasses(ctx, search)
		if err != nil {
			return nil, err
		}
		page.Results = page.Items()
		return Classes(page), nil
	case KindTeachers:
		ms, err := c.members.Members(ctx, classroom.TeacherPoolQuery)
		return TeacherPool(ms), err
	case KindStudents:
		ms, err := c.members.Members(ctx, classroom.StudentPoolQuery)
		return StudentPool(ms), err
	}
	return nil, errors.Errorf("unknown list %s", k)
}

func (c *Catalog) apply(gen uint64, col Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gens[col.Kind()] != gen {
		return
	}
	c.replace(col)
}
