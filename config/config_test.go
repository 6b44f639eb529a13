package config

import "testing"

type testLogger struct{}

func (testLogger) Debug(string, ...interface{})   {}
func (testLogger) Info(string, ...interface{})    {}
func (testLogger) Warning(string, ...interface{}) {}
func (testLogger) Error(string, ...interface{})   {}
func (testLogger) Fatal(string, ...interface{})   {}

func TestDefaultValidates(t *testing.T) {
	cfg := Default(testLogger{})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadHierarchicalLevels(t *testing.T) {
	cfg := Default(testLogger{})
	cfg.HierarchicalLevels = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil for hierarchical_levels=2, want error")
	}
}

func TestValidateRejectsNonPositiveRegionGrid(t *testing.T) {
	cfg := Default(testLogger{})
	cfg.PictureAnalysisRegionsPerWidth = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil for zero region width, want error")
	}
}

func TestValidateRejectsOrderHintBitsOutOfRange(t *testing.T) {
	cfg := Default(testLogger{})
	cfg.OrderHintBits = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil for order_hint_bits=0, want error")
	}
	cfg.OrderHintBits = 9
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil for order_hint_bits=9, want error")
	}
}

func TestValidateRejectsNilLogger(t *testing.T) {
	cfg := Default(testLogger{})
	cfg.Logger = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil for nil Logger, want error")
	}
}
