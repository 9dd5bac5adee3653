package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Redis     RedisConfig      `yaml:"redis"`
	Auth      AuthConfig       `yaml:"auth"`
	EmbedLLM  LLMConfig        `yaml:"embed_llm"`
	Providers []ProviderConfig `yaml:"providers"`
	RAG       RAGConfig        `yaml:"rag"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	TTLSeconds  int    `yaml:"ttl_seconds"`
	SyncMinutes int    `yaml:"sync_minutes"`
}

type AuthConfig struct {
	BaseURL    string `yaml:"base_url"`
	ServiceKey string `yaml:"service_key"`
	KeyEnv     string `yaml:"key_env"`
}

// LLMConfig describes one model endpoint, for embeddings or chat.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Key      string `yaml:"key"`
	KeyEnv   string `yaml:"key_env"`
}

// ProviderConfig is one entry in the ordered chat-model fallback list.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Key     string `yaml:"key"`
	KeyEnv  string `yaml:"key_env"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	NumQuestions int `yaml:"num_questions"`
	TopK         int `yaml:"top_k"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.resolveKeys()
	cfg.applyDefaults()
	return &cfg, nil
}

// resolveKeys pulls secrets referenced by *_env fields out of the environment
// once, at load time. Everything downstream reads the resolved config only.
func (c *Config) resolveKeys() {
	if c.Auth.ServiceKey == "" && c.Auth.KeyEnv != "" {
		c.Auth.ServiceKey = os.Getenv(c.Auth.KeyEnv)
	}
	if c.EmbedLLM.Key == "" && c.EmbedLLM.KeyEnv != "" {
		c.EmbedLLM.Key = os.Getenv(c.EmbedLLM.KeyEnv)
	}
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Key == "" && p.KeyEnv != "" {
			p.Key = os.Getenv(p.KeyEnv)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = 3600
	}
	if c.Redis.SyncMinutes == 0 {
		c.Redis.SyncMinutes = 30
	}
}
