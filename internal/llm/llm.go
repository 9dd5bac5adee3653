package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrUnavailable means no configured language model endpoint could be
	// reached or constructed.
	ErrUnavailable = errors.New("no language model available")
	// ErrInvocation means the model call itself failed or returned an
	// unusable response.
	ErrInvocation = errors.New("model invocation failed")
)

// Model is the capability the pipeline depends on: a prompt in, plain text
// out. Adapters normalize whatever shape the backend returns before it
// reaches the pipeline.
type Model interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	Name() string
}

// langchainModel adapts a langchaingo chat model to the Model interface.
type langchainModel struct {
	llm  llms.Model
	name string
}

func (m *langchainModel) Name() string { return m.name }

func (m *langchainModel) Invoke(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	resp, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvocation, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from %s", ErrInvocation, m.name)
	}
	return resp.Choices[0].Content, nil
}

// Wrap exposes a langchaingo model under a provider name. Used by Select and
// by tests that need a scripted backend.
func Wrap(llm llms.Model, name string) Model {
	return &langchainModel{llm: llm, name: name}
}

// Select walks the configured provider list in priority order and returns
// the first one that is available. The probe order and availability rules
// live in Probes; Select only decides over the resolved config.
func Select(probes []Probe) (Model, error) {
	for _, p := range probes {
		if !p.Available() {
			continue
		}
		model, err := p.New()
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name).Msg("Provider probe failed, trying next")
			continue
		}
		log.Info().Str("provider", p.Name).Msg("Selected language model provider")
		return model, nil
	}
	return nil, fmt.Errorf("%w: run Ollama locally or configure a provider API key", ErrUnavailable)
}
