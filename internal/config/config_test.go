package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "skepa.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("MaxCallDepth = %d, want %d", cfg.MaxCallDepth, DefaultMaxCallDepth)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skepa.yaml")
	content := "max_call_depth: 64\nsearch_roots:\n  - vendor/libs\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxCallDepth != 64 {
		t.Errorf("MaxCallDepth = %d, want 64", cfg.MaxCallDepth)
	}
	if len(cfg.SearchRoots) != 1 || cfg.SearchRoots[0] != "vendor/libs" {
		t.Errorf("SearchRoots = %v, want [vendor/libs]", cfg.SearchRoots)
	}
}

func TestLoad_RejectsInvalidMaxCallDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skepa.yaml")
	if err := os.WriteFile(path, []byte("max_call_depth: 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for max_call_depth: 0")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "unset leaves default", value: "", want: DefaultMaxCallDepth},
		{name: "valid override", value: "32", want: 32},
		{name: "non-integer is an error", value: "abc", wantErr: true},
		{name: "zero is an error", value: "0", wantErr: true},
		{name: "negative is an error", value: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				os.Unsetenv(EnvMaxCallDepth)
			} else {
				os.Setenv(EnvMaxCallDepth, tt.value)
				defer os.Unsetenv(EnvMaxCallDepth)
			}

			cfg := Default()
			err := cfg.ApplyEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ApplyEnv: expected an error for %s=%q", EnvMaxCallDepth, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnv: %v", err)
			}
			if cfg.MaxCallDepth != tt.want {
				t.Errorf("MaxCallDepth = %d, want %d", cfg.MaxCallDepth, tt.want)
			}
		})
	}
}

func TestBindFlags(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	if err := fs.Parse([]string{"--max-call-depth=16", "--search-root=a", "--search-root=b", "--trace"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MaxCallDepth != 16 {
		t.Errorf("MaxCallDepth = %d, want 16", cfg.MaxCallDepth)
	}
	if len(cfg.SearchRoots) != 2 || cfg.SearchRoots[0] != "a" || cfg.SearchRoots[1] != "b" {
		t.Errorf("SearchRoots = %v, want [a b]", cfg.SearchRoots)
	}
	if !cfg.Trace {
		t.Error("Trace = false, want true")
	}
}
