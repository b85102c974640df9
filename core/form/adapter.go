// Package form submits validated form payloads to create or update endpoints.
package form

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
)

type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome `json:"-"`
	ID      string  `json:"id"`
}

type (
	// Mutator is the pair of create/update endpoints a form submits to.
	Mutator[P any] interface {
		// Create returns the id of the created entity ("" if the endpoint does not tell).
		Create(ctx context.Context, payload P) (string, error)
		Update(ctx context.Context, id string, payload P) error
	}

	// Refresher re-fetches the lists a mutation may have changed.
	Refresher interface {
		Refresh(ctx context.Context)
	}

	RefreshFunc func(ctx context.Context)
)

func (f RefreshFunc) Refresh(ctx context.Context) { f(ctx) }

type Messages struct {
	Created string
	Updated string
	Failed  string
}

// Adapter is cheap to build; callers usually make one per submission with the
// session's notifier and refresher.
type Adapter[P any] struct {
	Mutator   Mutator[P]
	Notifier  core.Notifier
	Refresher Refresher           // optional
	Activity  activity.Repository // optional
	Logger    core.Logger
	Entity    string
	Messages  Messages
	Describe  func(P) string // activity summary
}

// Submit updates the entity identified by currentID, or creates one when currentID is empty.
//
// The refresh runs only once the mutation succeeded. On failure exactly one error
// notification is emitted and nothing is refreshed; the caller keeps its entered state.
func (a Adapter[P]) Submit(ctx context.Context, currentID string, payload P) (Result, error) {
	var res Result
	if currentID != "" {
		if err := a.Mutator.Update(ctx, currentID, payload); err != nil {
			a.fail(err, "updating "+a.Entity)
			return res, errors.Wrapf(err, "updating %s %s", a.Entity, currentID)
		}
		res = Result{Outcome: Updated, ID: currentID}
		core.Success(a.Notifier, a.Messages.Updated)
	} else {
		id, err := a.Mutator.Create(ctx, payload)
		if err != nil {
			a.fail(err, "creating "+a.Entity)
			return res, errors.Wrapf(err, "creating %s", a.Entity)
		}
		res = Result{Outcome: Created, ID: id}
		core.Success(a.Notifier, a.Messages.Created)
	}

	a.record(ctx, res, payload)
	if a.Refresher != nil {
		a.Refresher.Refresh(ctx)
	}
	return res, nil
}

func (a Adapter[P]) fail(err error, what string) {
	msg := a.Messages.Failed
	if msg == "" {
		msg = "Something went wrong"
	}
	core.Failure(a.Notifier, msg)
	if a.Logger != nil {
		a.Logger.Warn(fmt.Sprintf("%s: %v", what, err), err)
	}
}

func (a Adapter[P]) record(ctx context.Context, res Result, payload P) {
	if a.Activity == nil {
		return
	}
	action := activity.ActionCreate
	if res.Outcome == Updated {
		action = activity.ActionUpdate
	}
	var summary string
	if a.Describe != nil {
		summary = a.Describe(payload)
	}
	entry := activity.NewEntry(activity.ActorFrom(ctx), action, a.Entity, res.ID, summary)
	if err := a.Activity.Record(ctx, entry); err != nil && a.Logger != nil {
		a.Logger.Error(fmt.Sprintf("recording activity: %v", err), err)
	}
}

// RecordDeletion logs a successful deletion; failures are logged only.
func RecordDeletion(ctx context.Context, repo activity.Repository, logger core.Logger, entity, id, summary string) {
	if repo == nil {
		return
	}
	entry := activity.NewEntry(activity.ActorFrom(ctx), activity.ActionDelete, entity, id, summary)
	if err := repo.Record(ctx, entry); err != nil && logger != nil {
		logger.Error(fmt.Sprintf("recording activity: %v", err), err)
	}
}
