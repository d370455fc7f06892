package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:       HTTPConfig{Port: 8080},
		Database:   DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding:  EmbeddingConfig{Model: "text-embedding-3-small"},
		Generation: GenerationConfig{Model: "gpt-4.1-mini"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }},
		{"no embedding model", func(c *Config) { c.Embedding.Model = "" }},
		{"no generation model", func(c *Config) { c.Generation.Model = "" }},
		{"recall below topk", func(c *Config) { c.Retrieval.RecallK = 3; c.Retrieval.TopK = 6 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Retrieval.RecallK != 24 || cfg.Retrieval.TopK != 6 {
		t.Fatalf("retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.Namespace != "regs" || cfg.Retrieval.DefaultTenant != "fia" {
		t.Fatalf("namespace/tenant defaults: %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Dimensions != 1536 || cfg.Embedding.CacheTTLHr != 168 {
		t.Fatalf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Index.HNSWM != 32 || cfg.Index.HNSWEFConstruct != 400 {
		t.Fatalf("index defaults: %+v", cfg.Index)
	}
	if !cfg.RerankOn() {
		t.Fatal("rerank must default to enabled")
	}
}

func TestRerankOn_ExplicitFalse(t *testing.T) {
	off := false
	cfg := Config{Retrieval: RetrievalConfig{RerankEnabled: &off}}
	if cfg.RerankOn() {
		t.Fatal("explicit false must disable rerank")
	}
}

func TestGenerationModelFallbacks(t *testing.T) {
	cfg := validConfig()
	if cfg.Generation.RerankModel != "gpt-4.1-mini" || cfg.Generation.JudgeModel != "gpt-4.1-mini" {
		t.Fatalf("rerank/judge models must fall back to generation model: %+v", cfg.Generation)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	content := []byte(`
http:
  port: ${TEST_REGSEARCH_PORT:-8080}
database:
  addrs:
    - ${TEST_REGSEARCH_REDIS:-localhost:6379}
embedding:
  model: text-embedding-3-small
  api_key: ${TEST_REGSEARCH_KEY}
generation:
  model: gpt-4.1-mini
`)
	if err := os.WriteFile(filepath.Join(cfgDir, "test.yaml"), content, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_REGSEARCH_KEY", "secret-key")

	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("default substitution failed: %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "secret-key" {
		t.Fatalf("env substitution failed: %q", cfg.Embedding.APIKey)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Fatalf("addr substitution failed: %v", cfg.Database.Addrs)
	}
}
