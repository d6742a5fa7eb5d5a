// Package aisvc backs the study tutor with Gemini.
package aisvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/tutor"
)

var ErrNoAPIKey = errors.New("tutor API key not configured")

// GeminiModel sends one-shot prompts to the Gemini API.
type GeminiModel struct {
	models *genai.Models
	model  string
}

var _ tutor.Model = (*GeminiModel)(nil)

func NewGeminiModel(ctx context.Context, conf core.TutorConfig) (*GeminiModel, error) {
	if conf.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "genai.NewClient")
	}
	return &GeminiModel{models: client.Models, model: conf.Model}, nil
}

func (m *GeminiModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	res, err := m.models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", errors.Wrap(err, "models.GenerateContent")
	}
	return res.Text(), nil
}

// Offline answers every question with the connection error. It stands in when no API key is configured.
var Offline = tutor.ModelFunc(func(context.Context, string, string) (string, error) {
	return "", errors.New(tutor.ConnectionError)
})
