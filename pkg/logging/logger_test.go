package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger := New(level)
		if logger == nil || logger.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default returned nil")
	}
	logger.Info("test message", "key", "value")
}

func TestComponent(t *testing.T) {
	logger := Default().Component("intake")
	if logger == nil || logger.Logger == nil {
		t.Fatal("Component returned nil logger")
	}
	logger.Info("component-tagged message")
}
