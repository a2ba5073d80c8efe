package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitSwitchesExistingLoggers(t *testing.T) {
	logger := L("discovery")

	var buf bytes.Buffer
	Init("json", "debug", &buf)

	logger.Debug("hello world")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected log output to contain message, got %q", out)
	}
	if !strings.Contains(out, `"component":"discovery"`) {
		t.Fatalf("expected component field, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARN":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
