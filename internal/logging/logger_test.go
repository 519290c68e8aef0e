package logging

import (
	"os"
	"testing"

	"go.uber.org/zap/zapcore"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("entering temp directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestBuildRejectsUnknownLevel(t *testing.T) {
	chdirTemp(t)
	if _, err := Build("production", "noisy"); err == nil {
		t.Fatal("Build() with an unknown level, want error")
	}
}

func TestBuildByEnvironment(t *testing.T) {
	chdirTemp(t)
	for _, env := range []string{"production", "development", ""} {
		logger, err := Build(env, "debug")
		if err != nil {
			t.Fatalf("Build(%q) error = %v", env, err)
		}
		logger.Debug("logger_built")
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("Build(%q) debug level disabled at debug setting", env)
		}
	}
	if _, err := os.Stat("logs"); err != nil {
		t.Errorf("logs directory not created: %v", err)
	}
}
