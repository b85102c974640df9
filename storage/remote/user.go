package remote

import (
	"context"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/user"
)

type userRepository struct {
	c *Client
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(c *Client) user.Repository {
	return &userRepository{c: c}
}

func (repo *userRepository) QueryUsers(ctx context.Context, uq user.Query) (core.Page[user.User], error) {
	q := make(map[string]string)
	if uq.Search != "" {
		q["search"] = uq.Search
	}
	boolParam(q, "isTeacher", uq.IsTeacher)
	boolParam(q, "isStudent", uq.IsStudent)
	boolParam(q, "hasClassroom", uq.HasClassroom)
	boolParam(q, "hasHomeroom", uq.HasHomeroom)

	var page core.Page[user.User]
	err := repo.c.Get(ctx, "/users", q, &page)
	return page, err
}

func (repo *userRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := repo.c.Get(ctx, "/users/"+id, nil, &u)
	return u, err
}

func (repo *userRepository) CreateUser(ctx context.Context, p user.Payload) (user.User, error) {
	var u user.User
	err := repo.c.Post(ctx, "/users", p, &u)
	return u, err
}

func (repo *userRepository) UpdateUser(ctx context.Context, id string, p user.Payload) (user.User, error) {
	var u user.User
	err := repo.c.Patch(ctx, "/users/"+id, p, &u)
	return u, err
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	return repo.c.Delete(ctx, "/users/"+id)
}
