package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "TEXTHL_API_KEY", "DB_PATH", "WORKER_COUNT", "MAX_QUEUE_SIZE",
		"MAX_UPLOAD_BYTES", "JOB_TTL", "DEFAULT_COLOR", "HIGHLIGHTED_CLASS",
		"CONTEXT_CLASS", "PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("Port = %q, want 8090", cfg.Port)
	}
	if cfg.DBPath != "texthl.db" {
		t.Errorf("DBPath = %q, want texthl.db", cfg.DBPath)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("JobTTL = %v, want 1h", cfg.JobTTL)
	}
	if cfg.DefaultColor != "#ffff7b" {
		t.Errorf("DefaultColor = %q, want #ffff7b", cfg.DefaultColor)
	}
	if cfg.HighlightedClass != "highlighted" {
		t.Errorf("HighlightedClass = %q, want highlighted", cfg.HighlightedClass)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("PDFFallbackPdftotext should default to true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("JOB_TTL", "10m")
	t.Setenv("DEFAULT_COLOR", "#ff0000")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
	if cfg.JobTTL != 10*time.Minute {
		t.Errorf("JobTTL = %v, want 10m", cfg.JobTTL)
	}
	if cfg.DefaultColor != "#ff0000" {
		t.Errorf("DefaultColor = %q, want #ff0000", cfg.DefaultColor)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("PDFFallbackPdftotext should be false")
	}
}

func TestLoad_ClampsInvalidNumbers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("MAX_QUEUE_SIZE", "0")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want clamped default 4", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("MaxQueueSize = %d, want clamped default 100", cfg.MaxQueueSize)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{APIKey: "secret", DBPath: "texthl.db"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing API key")
	}

	cfg.APIKey = "secret"
	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing DB path")
	}
}
