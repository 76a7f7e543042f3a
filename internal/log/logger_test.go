package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentIngest, Output: &buf})
	l.InfoContext(context.Background(), "Loaded source", FieldSource, "Amex_2025-08", FieldRows, 3)

	out := buf.String()
	for _, want := range []string{"component=ingest", "source=Amex_2025-08", "rows=3", `msg="Loaded source"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestWithComponentSwitchesName(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Output: &buf}).WithComponent(ComponentSink)
	l.WarnContext(context.Background(), "resize failed")
	if !strings.Contains(buf.String(), "component=sink") || strings.Contains(buf.String(), "component=app") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if l.Component() != ComponentSink {
		t.Fatalf("component = %q", l.Component())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation(OpUpload).WithDestination("abc", "Sheet1").WithError(errors.New("boom"))
	if f[FieldOperation] != OpUpload || f[FieldSheet] != "Sheet1" || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length mismatch")
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatal("nil error should not be recorded")
	}
}
