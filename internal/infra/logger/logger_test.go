package logger

import "testing"

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode, "debug")
		if err != nil {
			t.Fatalf("New(%q) error: %v", mode, err)
		}
		l.With("component", "test").Debug("hello", "k", 1)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("dev", "shouty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded")
	l.Sync()
}
