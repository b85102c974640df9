package remote

import (
	"context"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/subject"
)

type subjectRepository struct {
	c *Client
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(c *Client) subject.Repository {
	return &subjectRepository{c: c}
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, search string) (core.Page[subject.Subject], error) {
	q := make(map[string]string)
	if search != "" {
		q["search"] = search
	}
	var page core.Page[subject.Subject]
	err := repo.c.Get(ctx, "/subjects", q, &page)
	return page, err
}

func (repo *subjectRepository) GetSubject(ctx context.Context, id string) (subject.Subject, error) {
	var s subject.Subject
	err := repo.c.Get(ctx, "/subjects/"+id, nil, &s)
	return s, err
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, f subject.Form) (subject.Subject, error) {
	var s subject.Subject
	err := repo.c.Post(ctx, "/subjects", f, &s)
	return s, err
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, id string, f subject.Form) (subject.Subject, error) {
	var s subject.Subject
	err := repo.c.Patch(ctx, "/subjects/"+id, f, &s)
	return s, err
}

func (repo *subjectRepository) DeleteSubject(ctx context.Context, id string) error {
	return repo.c.Delete(ctx, "/subjects/"+id)
}
