package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want Config
	}{
		{
			name: "toml",
			file: "loader.toml",
			body: "max_weights = 4\ngenerate_mipmaps = false\nworkers = 2\nlog_level = \"debug\"\nwatch = true\n",
			want: Config{MaxWeights: 4, GenerateMipmaps: false, Workers: 2, LogLevel: "debug", Watch: true},
		},
		{
			name: "yaml",
			file: "loader.yaml",
			body: "max_weights: 2\nworkers: 8\n",
			want: Config{MaxWeights: 2, GenerateMipmaps: true, Workers: 8, LogLevel: "info"},
		},
		{
			name: "empty file keeps defaults",
			file: "loader.yml",
			body: "",
			want: DefaultConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		message string
	}{
		{"too many weights", "a.toml", "max_weights = 9\n", "max_weights"},
		{"no workers", "b.toml", "workers = 0\n", "workers"},
		{"unknown level", "c.yaml", "log_level: loud\n", "log_level"},
		{"bad toml", "d.toml", "max_weights = [\n", "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.message) {
				t.Errorf("err = %v, want one mentioning %q", err, tt.message)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWithConfig_FillsZeroFields(t *testing.T) {
	l := NewLoader(BackendTypeGLTF, WithConfig(Config{MaxWeights: 20, GenerateMipmaps: true})).(*loader)
	want := Config{MaxWeights: model.MaxWeights, GenerateMipmaps: true, Workers: 4, LogLevel: "info"}
	if l.cfg != want {
		t.Errorf("cfg = %+v, want %+v", l.cfg, want)
	}
}
