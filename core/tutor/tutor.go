// Package tutor answers study questions through a generative model.
package tutor

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	FallbackReply   = "I'm sorry, I couldn't process that. Could you rephrase?"
	ConnectionError = "Error connecting to Study Brain. Please check your connection."
)

var ErrEmptyQuestion = errors.New("Ask a question first.")

// Model generates a single reply to prompt under the system instruction.
type Model interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Service interface {
	Ask(ctx context.Context, question string) (string, error)
}

type service struct {
	model  Model
	system string
}

var _ Service = (*service)(nil)

func NewService(model Model, systemInstruction string) Service {
	return &service{model: model, system: systemInstruction}
}

// Ask makes one request to the model. Blank replies become FallbackReply.
func (svc *service) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	reply, err := svc.model.Generate(ctx, svc.system, question)
	if err != nil {
		return "", errors.Wrap(err, "generating reply")
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackReply, nil
	}
	return reply, nil
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, system, prompt string) (string, error)

func (f ModelFunc) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
