package remote

import (
	"context"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/classroom"
)

type classroomRepository struct {
	c *Client
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(c *Client) classroom.Repository {
	return &classroomRepository{c: c}
}

func (repo *classroomRepository) QueryClasses(ctx context.Context, search string) (core.Page[classroom.Class], error) {
	q := make(map[string]string)
	if search != "" {
		q["search"] = search
	}
	var page core.Page[classroom.Class]
	err := repo.c.Get(ctx, "/classrooms", q, &page)
	return page, err
}

func (repo *classroomRepository) GetClass(ctx context.Context, id string) (classroom.Detail, error) {
	var d classroom.Detail
	err := repo.c.Get(ctx, "/classrooms/"+id, nil, &d)
	return d, err
}

func (repo *classroomRepository) CreateClass(ctx context.Context, p classroom.Payload) (classroom.Class, error) {
	var cls classroom.Class
	err := repo.c.Post(ctx, "/classrooms", p, &cls)
	return cls, err
}

func (repo *classroomRepository) UpdateClass(ctx context.Context, id string, p classroom.Payload) (classroom.Class, error) {
	var cls classroom.Class
	err := repo.c.Patch(ctx, "/classrooms/"+id, p, &cls)
	return cls, err
}

func (repo *classroomRepository) DeleteClass(ctx context.Context, id string) error {
	return repo.c.Delete(ctx, "/classrooms/"+id)
}
