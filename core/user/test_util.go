package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/gothwad/classesx/core"
)

// NewServiceMock returns a Service whose background work, such as password reset mails, runs before the call returns.
func NewServiceMock(repo Repository, mailSvc core.EmailService, validate *validator.Validate) Service {
	svc := NewService(repo, mailSvc, validate).(*service)
	svc.background = func(f func()) { f() }
	return svc
}
