package batch

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("batch not found")
	ErrNotAStudent       = errors.New("only students can be enrolled")
	errAllFieldsRequired = errors.New("All fields are required.")
)

// SearchLimit caps the batches a name search returns.
const SearchLimit = 5

type (
	Repository interface {
		CreateBatch(ctx context.Context, b Batch) (Batch, error)
		GetBatch(ctx context.Context, id string) (Batch, error)
		// QueryBatches returns the batches newest first.
		QueryBatches(ctx context.Context, filter QueryFilter) ([]Batch, error)
		// AddStudent adds uid to the batch members unless already there.
		AddStudent(ctx context.Context, batchID, uid string) (Batch, error)
		// RemoveStudent removes every occurrence of uid from the batch members.
		RemoveStudent(ctx context.Context, batchID, uid string) (Batch, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nb NewBatch) (Batch, error)
		ListFor(ctx context.Context, actor user.User) ([]Batch, error)
		Search(ctx context.Context, actor user.User, prefix string) ([]Batch, error)
		Get(ctx context.Context, id string) (Batch, error)
		GetFor(ctx context.Context, actor user.User, id string) (Batch, error)
		Enroll(ctx context.Context, actor user.User, batchID, uid string) (Batch, error)
		Unenroll(ctx context.Context, actor user.User, batchID, uid string) (Batch, error)
		Students(ctx context.Context, actor user.User, batchID, search string) ([]user.User, error)
		CreateStudent(ctx context.Context, actor user.User, ns NewStudent) (user.User, error)
		EditStudent(ctx context.Context, actor user.User, uid string, es EditStudent) (user.User, error)
	}

	service struct {
		repo     Repository
		usrSvc   user.Service
		broker   live.Broker
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, broker live.Broker, validate *validator.Validate, logger core.Logger) Service {
	return &service{
		repo:     repo,
		usrSvc:   usrSvc,
		broker:   broker,
		validate: validate,
		logger:   logger,
	}
}

func (svc *service) publish(ctx context.Context) {
	if err := svc.broker.Publish(ctx, live.TopicBatches); err != nil {
		svc.logger.Warn("publishing batch change", err)
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, nb NewBatch) (Batch, error) {
	if !actor.IsAdmin() {
		return Batch{}, core.ErrForbidden
	}
	if err := nb.Validate(svc.validate); err != nil {
		return Batch{}, err
	}
	b, err := svc.repo.CreateBatch(ctx, Batch{
		Name:           nb.Name,
		ClassLevel:     nb.ClassLevel,
		Instructor:     nb.Instructor,
		Subjects:       nb.Subjects,
		StudentIDs:     []string{},
		ThumbnailColor: nb.ThumbnailColor,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return Batch{}, errors.Wrap(err, "creating batch")
	}
	svc.publish(ctx)
	return b, nil
}

// ListFor returns every batch to admins and the batches they (or their child) belong to otherwise.
func (svc *service) ListFor(ctx context.Context, actor user.User) ([]Batch, error) {
	if actor.IsAdmin() {
		return svc.repo.QueryBatches(ctx, QueryFilter{})
	}
	memberID := actor.MemberID()
	if memberID == "" {
		return []Batch{}, nil
	}
	return svc.repo.QueryBatches(ctx, QueryFilter{MemberID: memberID})
}

// Search returns up to SearchLimit batches actor may see whose name starts with prefix.
func (svc *service) Search(ctx context.Context, actor user.User, prefix string) ([]Batch, error) {
	filter := QueryFilter{Search: core.CleanString(prefix), Limit: SearchLimit}
	if filter.Search == "" {
		return []Batch{}, nil
	}
	if !actor.IsAdmin() {
		if filter.MemberID = actor.MemberID(); filter.MemberID == "" {
			return []Batch{}, nil
		}
	}
	return svc.repo.QueryBatches(ctx, filter)
}

func (svc *service) Get(ctx context.Context, id string) (Batch, error) {
	return svc.repo.GetBatch(ctx, id)
}

// GetFor returns the batch if actor may see it. Batches actor may not see are not found.
func (svc *service) GetFor(ctx context.Context, actor user.User, id string) (Batch, error) {
	b, err := svc.repo.GetBatch(ctx, id)
	if err != nil {
		return Batch{}, err
	}
	if actor.IsAdmin() || b.HasStudent(actor.MemberID()) {
		return b, nil
	}
	return Batch{}, ErrNotFound
}

func (svc *service) Enroll(ctx context.Context, actor user.User, batchID, uid string) (Batch, error) {
	if !actor.IsAdmin() {
		return Batch{}, core.ErrForbidden
	}
	usr, err := svc.usrSvc.GetByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Batch{}, core.NewFieldError("student_id", user.ErrStudentNotFound.Error())
		}
		return Batch{}, errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return Batch{}, core.NewFieldError("student_id", ErrNotAStudent.Error())
	}
	b, err := svc.repo.AddStudent(ctx, batchID, uid)
	if err != nil {
		return Batch{}, err
	}
	svc.publish(ctx)
	return b, nil
}

func (svc *service) Unenroll(ctx context.Context, actor user.User, batchID, uid string) (Batch, error) {
	if !actor.IsAdmin() {
		return Batch{}, core.ErrForbidden
	}
	b, err := svc.repo.RemoveStudent(ctx, batchID, uid)
	if err != nil {
		return Batch{}, err
	}
	svc.publish(ctx)
	return b, nil
}

// Students lists the members of a batch, optionally searched by name, email or phone.
func (svc *service) Students(ctx context.Context, actor user.User, batchID, search string) ([]user.User, error) {
	b, err := svc.GetFor(ctx, actor, batchID)
	if err != nil {
		return nil, err
	}
	if len(b.StudentIDs) == 0 {
		return []user.User{}, nil
	}
	filter := user.QueryFilter{Search: search, IDs: b.StudentIDs}
	filter.Clean()
	return svc.usrSvc.Query(ctx, filter, []core.DBOrdering{{Field: "name", Ascending: true}})
}

// CreateStudent registers a student account and enrolls it in a batch.
func (svc *service) CreateStudent(ctx context.Context, actor user.User, ns NewStudent) (user.User, error) {
	if !actor.IsAdmin() {
		return user.User{}, core.ErrForbidden
	}
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.BatchID = core.CleanString(ns.BatchID)
	if ns.Name == "" || ns.Email == "" || ns.Password == "" || ns.BatchID == "" {
		return user.User{}, core.NewValidationError(errAllFieldsRequired)
	}

	b, err := svc.repo.GetBatch(ctx, ns.BatchID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return user.User{}, core.NewFieldError("batch_id", ErrNotFound.Error())
		}
		return user.User{}, errors.Wrap(err, "finding batch")
	}

	nu := user.NewUser{
		Name:            ns.Name,
		Email:           svc.usrSvc.LoginEmail(user.RoleStudent, ns.Email),
		Phone:           ns.Phone,
		Role:            user.RoleStudent,
		ClassLevel:      b.ClassLevel,
		Password:        ns.Password,
		PasswordConfirm: ns.Password,
	}
	if nu.Phone == "" {
		nu.Phone = ns.Email
	}
	if err = nu.Validate(svc.validate, svc.usrSvc); err != nil {
		return user.User{}, err
	}
	usr, err := svc.usrSvc.Create(ctx, nu)
	if err != nil {
		return user.User{}, err
	}
	if _, err = svc.repo.AddStudent(ctx, b.ID, usr.ID); err != nil {
		return user.User{}, errors.Wrap(err, "enrolling student")
	}
	svc.publish(ctx)
	return usr, nil
}

// EditStudent updates a student's name and phone, and moves them between batches when asked to.
func (svc *service) EditStudent(ctx context.Context, actor user.User, uid string, es EditStudent) (user.User, error) {
	if !actor.IsAdmin() {
		return user.User{}, core.ErrForbidden
	}
	usr, err := svc.usrSvc.GetByID(ctx, uid)
	if err != nil {
		return user.User{}, err
	}
	if !usr.IsStudent() {
		return user.User{}, core.NewValidationError(ErrNotAStudent)
	}

	phone := core.CleanString(es.Phone)
	uu := user.UpdateUser{Name: core.CleanString(es.Name)}
	if uu.Name == "" {
		uu.Name = usr.Name
	}
	if phone != "" {
		uu.Phone = &phone
	}

	es.FromBatchID = core.CleanString(es.FromBatchID)
	es.ToBatchID = core.CleanString(es.ToBatchID)
	if es.ToBatchID != "" && es.ToBatchID != es.FromBatchID {
		to, err := svc.repo.GetBatch(ctx, es.ToBatchID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return user.User{}, core.NewFieldError("to_batch_id", ErrNotFound.Error())
			}
			return user.User{}, errors.Wrap(err, "finding batch")
		}
		if es.FromBatchID != "" {
			if _, err = svc.repo.RemoveStudent(ctx, es.FromBatchID, uid); err != nil {
				return user.User{}, errors.Wrap(err, "leaving batch")
			}
		}
		if _, err = svc.repo.AddStudent(ctx, to.ID, uid); err != nil {
			return user.User{}, errors.Wrap(err, "joining batch")
		}
		uu.ClassLevel = &to.ClassLevel
		svc.publish(ctx)
	}

	return svc.usrSvc.Update(ctx, uid, uu)
}
