package logger

import (
	"testing"

	corelogger "github.com/acadterm/timetabler/core/logger"
)

func TestNewReturnsLogger(t *testing.T) {
	l := New("test")
	if l == nil {
		t.Fatalf("expected logger instance")
	}
	l.Infof("hello %s", "world")
	l.Debugw("structured", map[string]any{"k": 1})
}

func TestForRunCarriesRunID(t *testing.T) {
	rt, ok := New("solver").(corelogger.RunTagger)
	if !ok {
		t.Fatal("zerolog logger must support run tagging")
	}
	l := rt.ForRun("run-1")
	if l == nil {
		t.Fatalf("expected logger instance")
	}
	l.Warnf("warning from run")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debugf("d")
	l.Infof("i")
	l.Errorf("e")
}
