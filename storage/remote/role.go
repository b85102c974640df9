package remote

import (
	"context"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/role"
)

type roleRepository struct {
	c *Client
}

var _ role.Repository = (*roleRepository)(nil)

func NewRoleRepository(c *Client) role.Repository {
	return &roleRepository{c: c}
}

func (repo *roleRepository) QueryRoles(ctx context.Context) (core.Page[role.Role], error) {
	var page core.Page[role.Role]
	err := repo.c.Get(ctx, "/roles", nil, &page)
	return page, err
}
