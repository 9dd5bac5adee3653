package llm

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-rag/internal/config"
)

func TestSelect(t *testing.T) {
	fake := func(name string) Model {
		return &langchainModel{name: name}
	}

	t.Run("First available probe wins", func(t *testing.T) {
		probes := []Probe{
			{Name: "a", Available: func() bool { return false }},
			{Name: "b", Available: func() bool { return true }, New: func() (Model, error) { return fake("b"), nil }},
			{Name: "c", Available: func() bool { return true }, New: func() (Model, error) { return fake("c"), nil }},
		}

		model, err := Select(probes)

		require.NoError(t, err)
		assert.Equal(t, "b", model.Name())
	})

	t.Run("Failing constructor falls through", func(t *testing.T) {
		probes := []Probe{
			{Name: "a", Available: func() bool { return true }, New: func() (Model, error) { return nil, errors.New("boom") }},
			{Name: "b", Available: func() bool { return true }, New: func() (Model, error) { return fake("b"), nil }},
		}

		model, err := Select(probes)

		require.NoError(t, err)
		assert.Equal(t, "b", model.Name())
	})

	t.Run("No provider available", func(t *testing.T) {
		probes := []Probe{
			{Name: "a", Available: func() bool { return false }},
		}

		_, err := Select(probes)

		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestProbes(t *testing.T) {
	t.Run("Keeps configured order", func(t *testing.T) {
		providers := []config.ProviderConfig{
			{Name: "ollama", Model: "llama3.2"},
			{Name: "huggingface", Model: "meta-llama/Meta-Llama-3-8B-Instruct", Key: "hf"},
			{Name: "together", BaseURL: "https://api.together.xyz/v1", Model: "mixtral", Key: "tk"},
			{Name: "anthropic", Model: "claude-3-5-sonnet-20240620"},
		}

		probes := Probes(providers)

		require.Len(t, probes, 4)
		assert.Equal(t, "ollama", probes[0].Name)
		assert.Equal(t, "huggingface", probes[1].Name)
		assert.Equal(t, "together", probes[2].Name)
		assert.Equal(t, "anthropic", probes[3].Name)
	})

	t.Run("Hosted providers need a key", func(t *testing.T) {
		probes := Probes([]config.ProviderConfig{
			{Name: "anthropic", Model: "claude-3-5-sonnet-20240620"},
			{Name: "huggingface", Model: "m", Key: "set"},
		})

		require.Len(t, probes, 2)
		assert.False(t, probes[0].Available())
		assert.True(t, probes[1].Available())
	})
}

func TestOllamaAlive(t *testing.T) {
	t.Run("Healthy server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.True(t, ollamaAlive(srv.URL))
	})

	t.Run("Erroring server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		assert.False(t, ollamaAlive(srv.URL))
	})

	t.Run("Unreachable server", func(t *testing.T) {
		assert.False(t, ollamaAlive("http://127.0.0.1:1"))
	})
}
