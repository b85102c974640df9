package role

import (
	"context"
	"encoding/json"

	"github.com/Shin40411/Lms-client/core"
)

type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Features are passed through as returned upstream.
	Features []json.RawMessage `json:"roleFeatures"`
}

type Repository interface {
	QueryRoles(ctx context.Context) (core.Page[Role], error)
}

// Names returns the role names, in order. The user list filters on them.
func Names(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}
