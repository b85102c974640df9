package classroom

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/form"
)

type (
	Service interface {
		Query(ctx context.Context, search string) (core.Page[Class], error)
		Get(ctx context.Context, id string) (Detail, error)
		// Export writes the roster of class id to w as XLSX.
		Export(ctx context.Context, id string, w io.Writer) (Class, error)
		Delete(ctx context.Context, id string, n core.Notifier) error
	}

	service struct {
		repo     Repository
		activity activity.Repository
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, act activity.Repository, logger core.Logger) Service {
	return &service{repo: repo, activity: act, logger: logger}
}

func (svc *service) Query(ctx context.Context, search string) (core.Page[Class], error) {
	page, err := svc.repo.QueryClasses(ctx, core.CleanString(search))
	if err != nil {
		return core.Page[Class]{}, errors.Wrap(err, "querying classes")
	}
	page.Results = page.Items()
	return page, nil
}

func (svc *service) Get(ctx context.Context, id string) (Detail, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) Export(ctx context.Context, id string, w io.Writer) (Class, error) {
	d, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, errors.Wrapf(err, "getting class %s", id)
	}
	if err = WriteRoster(w, d); err != nil {
		return Class{}, errors.Wrapf(err, "exporting class %s", id)
	}
	return d.Class, nil
}

func (svc *service) Delete(ctx context.Context, id string, n core.Notifier) error {
	if err := svc.repo.DeleteClass(ctx, id); err != nil {
		core.Failure(n, messages.Failed)
		svc.logger.Warn(fmt.Sprintf("deleting class %s: %v", id, err), err)
		return errors.Wrapf(err, "deleting class %s", id)
	}
	core.Success(n, "Class deleted successfully")
	form.RecordDeletion(ctx, svc.activity, svc.logger, activity.EntityClass, id, "")
	return nil
}
