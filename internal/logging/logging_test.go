package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idilsaglam/todosync/internal/config"
)

func TestNew_WritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "todosync.log")

	logger, closer, err := New(config.Log{File: file, Level: "info", MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("add", "id", 256)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "msg=add") || !strings.Contains(out, "id=256") {
		t.Errorf("log output missing record:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level:\n%s", out)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(config.Log{Level: "chatty"}); err == nil {
		t.Fatal("New() with bad level succeeded")
	}
}

func TestNew_NoFileDiscards(t *testing.T) {
	logger, closer, err := New(config.Log{Level: "debug"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	logger.Info("dropped")
	if err := closer.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
