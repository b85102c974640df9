package subject

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/form"
)

var messages = form.Messages{
	Created: "Subject created successfully",
	Updated: "Subject updated successfully",
	Failed:  "Something went wrong",
}

type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Form holds the fields of the subject create/edit form; it is also the upstream payload.
type Form struct {
	Name        string `json:"name" validate:"required,notblank"`
	Code        string `json:"code" validate:"required,notblank"`
	Description string `json:"description"`
}

func (f *Form) Validate(validate *validator.Validate) error {
	f.Name = core.CleanString(f.Name)
	f.Code = core.CleanString(f.Code)
	f.Description = core.CleanString(f.Description)
	return validate.Struct(f)
}

type (
	Repository interface {
		QuerySubjects(ctx context.Context, search string) (core.Page[Subject], error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		CreateSubject(ctx context.Context, f Form) (Subject, error)
		UpdateSubject(ctx context.Context, id string, f Form) (Subject, error)
		DeleteSubject(ctx context.Context, id string) error
	}

	Service interface {
		Query(ctx context.Context, search string) (core.Page[Subject], error)
		Get(ctx context.Context, id string) (Subject, error)
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

func (svc *service) Query(ctx context.Context, search string) (core.Page[Subject], error) {
	page, err := svc.repo.QuerySubjects(ctx, core.CleanString(search))
	if err != nil {
		return core.Page[Subject]{}, errors.Wrap(err, "querying subjects")
	}
	page.Results = page.Items()
	return page, nil
}

func (svc *service) Get(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) Save(ctx context.Context, currentID string, data Form, n core.Notifier, r form.Refresher) (form.Result, error) {
	if err := data.Validate(svc.validate); err != nil {
		return form.Result{}, err
	}
	adapter := form.Adapter[Form]{
		Mutator:   mutator{repo: svc.repo},
		Notifier:  n,
		Refresher: r,
		Activity:  svc.activity,
		Logger:    svc.logger,
		Entity:    activity.EntitySubject,
		Messages:  messages,
		Describe:  func(f Form) string { return f.Code + " " + f.Name },
	}
	return adapter.Submit(ctx, currentID, data)
}

func (svc *service) Delete(ctx context.Context, id string, n core.Notifier) error {
	if err := svc.repo.DeleteSubject(ctx, id); err != nil {
		core.Failure(n, messages.Failed)
		svc.logger.Warn(fmt.Sprintf("deleting subject %s: %v", id, err), err)
		return errors.Wrapf(err, "deleting subject %s", id)
	}
	core.Success(n, "Subject deleted successfully")
	form.RecordDeletion(ctx, svc.activity, svc.logger, activity.EntitySubject, id, "")
	return nil
}

type mutator struct {
	repo Repository
}

func (m mutator) Create(ctx context.Context, f Form) (string, error) {
	s, err := m.repo.CreateSubject(ctx, f)
	return s.ID, err
}

func (m mutator) Update(ctx context.Context, id string, f Form) error {
	_, err := m.repo.UpdateSubject(ctx, id, f)
	return err
}
