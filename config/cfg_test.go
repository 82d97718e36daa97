package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	yaml "gopkg.in/yaml.v3"

	"imgres/common"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Assets.Registry.Kind != common.RegistryKindYaml {
		t.Errorf("default registry kind = %v, want yaml", cfg.Assets.Registry.Kind)
	}
	if cfg.Assets.Storage.Kind != common.StorageKindLocal {
		t.Errorf("default storage kind = %v, want local", cfg.Assets.Storage.Kind)
	}
	if cfg.Assets.Resolver.GuessDirectURL {
		t.Error("guessing direct urls must be disabled by default")
	}
	if got := len(cfg.Assets.Listing.Dialects); got != 3 {
		t.Errorf("default listing dialects = %d, want 3", got)
	}
	if cfg.Assets.Probe.Concurrency != 8 {
		t.Errorf("default probe concurrency = %d, want 8", cfg.Assets.Probe.Concurrency)
	}
	if cfg.Assets.Render.ScrollQuiet != 150*time.Millisecond {
		t.Errorf("default scroll quiet = %v, want 150ms", cfg.Assets.Render.ScrollQuiet)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `version: 1
assets:
  registry:
    kind: sqlite
    path: ` + filepath.Join(dir, "assets.db") + `
  storage:
    kind: http
    url_prefix: /user/images
    http:
      endpoint: http://localhost:8000
      token: very-secret
      timeout: 2s
  resolver:
    default_format: webp
    guess_direct_url: true
    markup_template: '<img src="{{ .Source }}">'
  render:
    batch_size: 2
    frame_budget: 4ms
    idle_timeout: 50ms
    scroll_quiet: 200ms
    container_class: message
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Assets.Registry.Kind != common.RegistryKindSqlite {
		t.Errorf("registry kind = %v, want sqlite", cfg.Assets.Registry.Kind)
	}
	if cfg.Assets.Storage.Kind != common.StorageKindHttp {
		t.Errorf("storage kind = %v, want http", cfg.Assets.Storage.Kind)
	}
	if cfg.Assets.Storage.HTTP.Token.Value() != "very-secret" {
		t.Error("token was not loaded")
	}
	if cfg.Assets.Resolver.DefaultFormat != "webp" || !cfg.Assets.Resolver.GuessDirectURL {
		t.Errorf("resolver section not applied: %+v", cfg.Assets.Resolver)
	}
	// markup template is not expanded by configuration processing
	if cfg.Assets.Resolver.MarkupTemplate != `<img src="{{ .Source }}">` {
		t.Errorf("markup template = %q", cfg.Assets.Resolver.MarkupTemplate)
	}
	if cfg.Assets.Render.BatchSize != 2 || cfg.Assets.Render.ContainerClass != "message" {
		t.Errorf("render section not applied: %+v", cfg.Assets.Render)
	}
	// untouched values keep defaults
	if cfg.Assets.Probe.MaxCandidates != 64 {
		t.Errorf("probe max candidates = %d, want default 64", cfg.Assets.Probe.MaxCandidates)
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nunknown: true\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfiguration_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad version", "version: 2\n"},
		{"bad batch size", "version: 1\nassets:\n  render:\n    batch_size: 0\n"},
		{"bad storage kind", "version: 1\nassets:\n  storage:\n    kind: floppy\n"},
		{"bad probe concurrency", "version: 1\nassets:\n  probe:\n    concurrency: 100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfiguration(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDump_HidesSecrets(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Assets.Storage.HTTP.Token = "hunter2"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Error("dumped configuration contains secret")
	}
	if !strings.Contains(string(data), SecretStringValue) {
		t.Error("dumped configuration does not mark secret")
	}
}

func TestSecretString(t *testing.T) {
	tests := []struct {
		name  string
		input SecretString
		json  string
		str   string
	}{
		{"empty", "", "null", ""},
		{"value", "token", `"` + SecretStringValue + `"`, SecretStringValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// json.Marshal would escape angle brackets of the marker
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(tt.input); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if data := strings.TrimSpace(buf.String()); data != tt.json {
				t.Errorf("json = %s, want %s", data, tt.json)
			}
			data, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			var decoded *string
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if got := tt.input.String(); (decoded == nil) != (got == "") || (decoded != nil && *decoded != got) {
				t.Errorf("json decodes to %v, want %q", decoded, got)
			}
			if tt.input.String() != tt.str {
				t.Errorf("String() = %q, want %q", tt.input.String(), tt.str)
			}
			if tt.input.Value() != string(tt.input) {
				t.Error("Value() must return actual secret")
			}
		})
	}

	var out struct {
		Token SecretString `yaml:"token,omitempty"`
	}
	out.Token = "abc"
	data, err := yaml.Marshal(out)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "abc") {
		t.Errorf("yaml output leaks secret: %s", data)
	}
}

func TestReport_StoreDataAndClose(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "report.zip")
	rpt, err := (&ReporterConfig{Destination: dst}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	rpt.StoreData("cache/character.txt", []byte("dump"))
	rpt.StoreData("cache/character.txt", []byte("dump again"))
	if len(rpt.entries) != 2 {
		t.Errorf("expected versioned entries, got %d", len(rpt.entries))
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if fi, err := os.Stat(dst); err != nil || fi.Size() == 0 {
		t.Fatalf("report archive was not written: %v", err)
	}

	var nilReport *Report
	nilReport.StoreData("x", []byte("y"))
	if err := nilReport.Close(); err != nil {
		t.Errorf("nil report Close() error = %v", err)
	}
}
