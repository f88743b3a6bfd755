package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.WarnLevel,
		"debug": zapcore.DebugLevel,
		"INFO":  zapcore.InfoLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInitWritesJSON(t *testing.T) {
	defer Set(nil)
	out := filepath.Join(t.TempDir(), "log.json")
	if _, err := Init(Options{Level: "info", OutputPaths: []string{out}}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("dataset opened", zap.String("source", "people.csv"))
	L().Debug("hidden")
	Sync()
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"msg":"dataset opened"`) || !strings.Contains(s, `"source":"people.csv"`) {
		t.Fatalf("unexpected log output: %s", s)
	}
	if strings.Contains(s, "hidden") {
		t.Fatalf("debug entry written at info level: %s", s)
	}
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	if _, err := Init(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultIsNop(t *testing.T) {
	Set(nil)
	L().Error("nothing happens")
}
