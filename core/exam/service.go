package exam

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
)

var ErrNotFound = errors.New("test not found")

type (
	Repository interface {
		CreateTest(ctx context.Context, t Test) (Test, error)
		GetTest(ctx context.Context, id string) (Test, error)
		// QueryTests returns the tests newest first. Unscoped tests match any batch filter.
		QueryTests(ctx context.Context, filter QueryFilter) ([]Test, error)
		// AppendQuestion appends q and recomputes the total marks in one write.
		AppendQuestion(ctx context.Context, testID string, q Question) (Test, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nt NewTest) (Test, error)
		List(ctx context.Context, actor user.User, batchID string) ([]Test, error)
		Get(ctx context.Context, actor user.User, id string) (Test, error)
		AddQuestion(ctx context.Context, actor user.User, testID string, nq NewQuestion) (Test, error)
	}

	service struct {
		repo     Repository
		batchSvc batch.Service
		broker   live.Broker
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batchSvc batch.Service, broker live.Broker, validate *validator.Validate, logger core.Logger) Service {
	return &service{
		repo:     repo,
		batchSvc: batchSvc,
		broker:   broker,
		validate: validate,
		logger:   logger,
	}
}

func (svc *service) publish(ctx context.Context) {
	if err := svc.broker.Publish(ctx, live.TopicTests); err != nil {
		svc.logger.Warn("publishing test change", err)
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, nt NewTest) (Test, error) {
	if !actor.IsAdmin() {
		return Test{}, core.ErrForbidden
	}
	if err := nt.Validate(svc.validate); err != nil {
		return Test{}, err
	}

	batchName := AllBatchesName
	if nt.BatchID != core.AllBatches {
		b, err := svc.batchSvc.Get(ctx, nt.BatchID)
		if err != nil {
			if errors.Cause(err) == batch.ErrNotFound {
				return Test{}, core.NewFieldError("batch_id", batch.ErrNotFound.Error())
			}
			return Test{}, errors.Wrap(err, "finding batch")
		}
		batchName = b.Name
	}

	t, err := svc.repo.CreateTest(ctx, Test{
		Title:     nt.Title,
		Date:      nt.Date,
		BatchID:   nt.BatchID,
		BatchName: batchName,
		Duration:  nt.Duration,
		Questions: []Question{},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Test{}, errors.Wrap(err, "creating test")
	}
	svc.publish(ctx)
	return t, nil
}

// memberBatchIDs returns nil for admins (every batch) and the batches of actor otherwise.
func (svc *service) memberBatchIDs(ctx context.Context, actor user.User) ([]string, error) {
	if actor.IsAdmin() {
		return nil, nil
	}
	batches, err := svc.batchSvc.ListFor(ctx, actor)
	if err != nil {
		return nil, errors.Wrap(err, "listing batches")
	}
	ids := make([]string, 0, len(batches))
	for _, b := range batches {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// List returns the tests visible to actor newest first, optionally restricted to one batch.
// Answers are hidden from everyone but admins.
func (svc *service) List(ctx context.Context, actor user.User, batchID string) ([]Test, error) {
	ids, err := svc.memberBatchIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := QueryFilter{BatchIDs: ids}
	if batchID = core.CleanString(batchID); batchID != "" {
		if ids != nil && !core.ContainsString(ids, batchID) {
			return []Test{}, nil
		}
		filter.BatchIDs = []string{batchID}
	}

	tests, err := svc.repo.QueryTests(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		for i := range tests {
			tests[i] = tests[i].Redacted()
		}
	}
	return tests, nil
}

func (svc *service) Get(ctx context.Context, actor user.User, id string) (Test, error) {
	t, err := svc.repo.GetTest(ctx, id)
	if err != nil {
		return Test{}, err
	}
	if actor.IsAdmin() {
		return t, nil
	}
	ids, err := svc.memberBatchIDs(ctx, actor)
	if err != nil {
		return Test{}, err
	}
	if !t.IsFor(ids) {
		return Test{}, ErrNotFound
	}
	return t.Redacted(), nil
}

func (svc *service) AddQuestion(ctx context.Context, actor user.User, testID string, nq NewQuestion) (Test, error) {
	if !actor.IsAdmin() {
		return Test{}, core.ErrForbidden
	}
	if err := nq.Validate(svc.validate); err != nil {
		return Test{}, err
	}
	correct := nq.CorrectOption
	t, err := svc.repo.AppendQuestion(ctx, testID, Question{
		ID:            uuid.NewString(),
		Text:          nq.Text,
		Options:       nq.Options,
		CorrectOption: &correct,
	})
	if err != nil {
		return Test{}, err
	}
	svc.publish(ctx)
	return t, nil
}
