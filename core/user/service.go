package user

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/form"
	"github.com/Shin40411/Lms-client/core/roster"
)

var messages = form.Messages{
	Created: "User created successfully",
	Updated: "User updated successfully",
	Failed:  "Something went wrong",
}

type (
	Repository interface {
		QueryUsers(ctx context.Context, q Query) (core.Page[User], error)
		GetUser(ctx context.Context, id string) (User, error)
		CreateUser(ctx context.Context, p Payload) (User, error)
		UpdateUser(ctx context.Context, id string, p Payload) (User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	Service interface {
		// Filter lists the users matching filter.
		Filter(ctx context.Context, filter Filter) (core.Page[User], error)
		// Members lists the users matching q as roster members.
		Members(ctx context.Context, q Query) ([]roster.Member, error)
		Get(ctx context.Context, id string) (User, error)
		// Save validates data then updates the user currentID, or creates one when currentID is empty.
		Save(ctx context.Context, currentID string, data Form, n core.Notifier, r form.Refresher) (form.Result, error)
		Delete(ctx context.Context, id string, n core.Notifier) error
	}

	service struct {
		repo     Repository
		activity activity.Repository
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, act activity.Repository, validate *validator.Validate, logger core.Logger) Service {
	return &service{repo: repo, activity: act, validate: validate, logger: logger}
}

func (svc *service) Filter(ctx context.Context, filter Filter) (core.Page[User], error) {
	filter.Clean()
	page, err := svc.repo.QueryUsers(ctx, filter.Query())
	if err != nil {
		return core.Page[User]{}, errors.Wrap(err, "querying users")
	}
	if !filter.hasLocal() {
		page.Results = page.Items()
		return page, nil
	}

	matched := make([]User, 0, len(page.Results))
	for _, u := range page.Results {
		if filter.match(u) {
			matched = append(matched, u)
		}
	}
	page.Results = matched
	page.Count = len(matched)
	return page, nil
}

func (svc *service) Members(ctx context.Context, q Query) ([]roster.Member, error) {
	page, err := svc.repo.QueryUsers(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return Members(page.Results), nil
}

func (svc *service) Get(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

func (svc *service) Save(ctx context.Context, currentID string, data Form, n core.Notifier, r form.Refresher) (form.Result, error) {
	if err := data.Validate(svc.validate); err != nil {
		return form.Result{}, err
	}
	if currentID == "" && data.Password == "" {
		return form.Result{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: "this field is required"})
	}

	adapter := form.Adapter[Payload]{
		Mutator:   mutator{repo: svc.repo},
		Notifier:  n,
		Refresher: r,
		Activity:  svc.activity,
		Logger:    svc.logger,
		Entity:    activity.EntityUser,
		Messages:  messages,
		Describe:  func(p Payload) string { return p.Username },
	}
	return adapter.Submit(ctx, currentID, data.Payload())
}

func (svc *service) Delete(ctx context.Context, id string, n core.Notifier) error {
	if err := svc.repo.DeleteUser(ctx, id); err != nil {
		core.Failure(n, messages.Failed)
		svc.logger.Warn(fmt.Sprintf("deleting user %s: %v", id, err), err)
		return errors.Wrapf(err, "deleting user %s", id)
	}
	core.Success(n, "User deleted successfully")
	form.RecordDeletion(ctx, svc.activity, svc.logger, activity.EntityUser, id, "")
	return nil
}

type mutator struct {
	repo Repository
}

func (m mutator) Create(ctx context.Context, p Payload) (string, error) {
	u, err := m.repo.CreateUser(ctx, p)
	return u.ID, err
}

func (m mutator) Update(ctx context.Context, id string, p Payload) error {
	_, err := m.repo.UpdateUser(ctx, id, p)
	return err
}
