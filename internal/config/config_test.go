package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "env: dev\nhttp_server:\n  address: localhost:8082\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Kind != BackendRemote {
		t.Errorf("kind = %q, want %q", cfg.Backend.Kind, BackendRemote)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8080" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Routes != RoutesREST {
		t.Errorf("routes = %q", cfg.Backend.Routes)
	}
	if cfg.HTTPServer.Addr != "localhost:8082" {
		t.Errorf("addr = %q", cfg.HTTPServer.Addr)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "env: dev\nhttp_server:\n  address: localhost:8082\nbackend:\n  routes: rest\n")
	t.Setenv("BACKEND_ROUTES", "legacy")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Routes != RoutesLegacy {
		t.Errorf("routes = %q, want legacy", cfg.Backend.Routes)
	}
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "sqlite without path",
			body: "env: dev\nhttp_server:\n  address: :1\nbackend:\n  kind: sqlite\n",
			want: "storage_path",
		},
		{
			name: "unknown kind",
			body: "env: dev\nhttp_server:\n  address: :1\nbackend:\n  kind: mongo\n",
			want: "backend.kind",
		},
		{
			name: "unknown routes",
			body: "env: dev\nhttp_server:\n  address: :1\nbackend:\n  routes: graphql\n",
			want: "backend.routes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() error = nil for missing file")
	}
}
