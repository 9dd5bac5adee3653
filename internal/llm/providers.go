package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/huggingface"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"research-rag/internal/config"
)

const defaultOllamaURL = "http://localhost:11434"

// Probe is one candidate provider: a cheap availability check plus a
// constructor. Probes are evaluated in order; the first available one wins.
type Probe struct {
	Name      string
	Available func() bool
	New       func() (Model, error)
}

// Probes builds the ordered provider list from the resolved configuration.
// A local Ollama comes first when it answers a health check; hosted
// providers follow in the order they are configured.
func Probes(providers []config.ProviderConfig) []Probe {
	probes := make([]Probe, 0, len(providers))
	for _, p := range providers {
		p := p
		switch p.Name {
		case "ollama":
			probes = append(probes, Probe{
				Name:      p.Name,
				Available: func() bool { return ollamaAlive(p.BaseURL) },
				New:       func() (Model, error) { return newOllama(p) },
			})
		case "huggingface":
			probes = append(probes, Probe{
				Name:      p.Name,
				Available: func() bool { return p.Key != "" },
				New:       func() (Model, error) { return newHuggingFace(p) },
			})
		case "anthropic":
			probes = append(probes, Probe{
				Name:      p.Name,
				Available: func() bool { return p.Key != "" },
				New:       func() (Model, error) { return newAnthropic(p) },
			})
		default:
			// Any other entry is treated as an OpenAI-compatible endpoint
			// (together, sambanova, openrouter, ...).
			probes = append(probes, Probe{
				Name:      p.Name,
				Available: func() bool { return p.Key != "" },
				New:       func() (Model, error) { return newOpenAICompatible(p) },
			})
		}
	}
	return probes
}

func newOllama(p config.ProviderConfig) (Model, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(p.Model),
	)
	if err != nil {
		return nil, err
	}
	return Wrap(llm, p.Name), nil
}

func newHuggingFace(p config.ProviderConfig) (Model, error) {
	llm, err := huggingface.New(
		huggingface.WithToken(p.Key),
		huggingface.WithModel(p.Model),
	)
	if err != nil {
		return nil, err
	}
	return Wrap(llm, p.Name), nil
}

func newAnthropic(p config.ProviderConfig) (Model, error) {
	llm, err := anthropic.New(
		anthropic.WithToken(p.Key),
		anthropic.WithModel(p.Model),
	)
	if err != nil {
		return nil, err
	}
	return Wrap(llm, p.Name), nil
}

func newOpenAICompatible(p config.ProviderConfig) (Model, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(p.Key, "Bearer ")),
		openai.WithModel(p.Model),
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return Wrap(llm, p.Name), nil
}

// ollamaAlive checks whether an Ollama server answers on its tags endpoint.
func ollamaAlive(baseURL string) bool {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/api/tags", strings.TrimSuffix(baseURL, "/")))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
