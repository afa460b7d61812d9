package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_Missing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Dir != dir {
		t.Fatalf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.BufferSize != "" || cfg.S3.Enabled() {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	content := `buffer_size: 64KiB
charset: gbk
decompress: gzip
s3:
  region: us-west-2
  endpoint: http://localhost:9000
  access_key: ak
  secret_key: sk
  path_style: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BufferSize != "64KiB" || cfg.Charset != "gbk" || cfg.Decompress != "gzip" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	want := S3{Region: "us-west-2", Endpoint: "http://localhost:9000", AccessKey: "ak", SecretKey: "sk", PathStyle: true}
	if cfg.S3 != want {
		t.Fatalf("S3 = %+v, want %+v", cfg.S3, want)
	}
	if !cfg.S3.Enabled() {
		t.Fatal("S3 should be enabled")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("s3: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDir, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != dir {
		t.Fatalf("Dir = %q, want %q", cfg.Dir, dir)
	}
}

func TestSaveAndRedacted(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := &Config{Dir: dir, Charset: "latin1", S3: S3{Region: "r", SecretKey: "secret"}}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Charset != "latin1" || got.S3.SecretKey != "secret" {
		t.Fatalf("round trip = %+v", got)
	}

	r := got.Redacted()
	if r.S3.SecretKey != "********" {
		t.Fatalf("Redacted SecretKey = %q", r.S3.SecretKey)
	}
	if got.S3.SecretKey != "secret" {
		t.Fatal("Redacted must not modify the original")
	}
}
