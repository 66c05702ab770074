package logger

import (
	"path/filepath"
	"testing"

	"github.com/ticket-rag/backend/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{name: "console", cfg: config.LogConfig{Level: "info", Format: "console"}},
		{name: "json", cfg: config.LogConfig{Level: "debug", Format: "json"}},
		{name: "file", cfg: config.LogConfig{Level: "warn", Format: "json", File: filepath.Join(t.TempDir(), "app.log")}},
		{name: "bad-level", cfg: config.LogConfig{Level: "loud"}, wantErr: true},
		{name: "bad-format", cfg: config.LogConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			l.Info("hello")
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
}
