package device

import (
	"errors"
	"testing"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

func TestSetThresholdBareNumeric(t *testing.T) {
	m := NewThresholdMonitor(0)
	v, err := m.SetThreshold([]byte(" 42.5 "), at(10, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42.5 {
		t.Errorf("expected 42.5, got %g", v)
	}
	if !m.Active() {
		t.Error("expected monitor active")
	}
}

func TestSetThresholdJSONForm(t *testing.T) {
	m := NewThresholdMonitor(0)
	v, err := m.SetThreshold([]byte(`{"threshold": 38.75}`), at(10, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 38.75 {
		t.Errorf("expected 38.75, got %g", v)
	}
}

func TestSetThresholdParseFailureKeepsState(t *testing.T) {
	m := NewThresholdMonitor(0)
	if _, err := m.SetThreshold([]byte("40"), at(10, 0, 0)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	m.CheckCrossing(45) // reported

	_, err := m.SetThreshold([]byte("not-a-number"), at(10, 5, 0))
	var parseErr *model.ThresholdParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ThresholdParseError, got %v", err)
	}

	if v, ok := m.Value(); !ok || v != 40 {
		t.Errorf("prior threshold lost: %g %v", v, ok)
	}
	if !m.CrossReported() {
		t.Error("crossReported flag should survive a failed update")
	}
}

func TestCrossingReportedOncePerActivation(t *testing.T) {
	m := NewThresholdMonitor(0)
	m.SetThreshold([]byte("40"), at(10, 0, 0))

	if m.CheckCrossing(39) {
		t.Error("below threshold should not report")
	}
	if !m.CheckCrossing(41) {
		t.Error("first crossing should report")
	}
	if m.CheckCrossing(50) {
		t.Error("second crossing in same activation should not report")
	}

	// new threshold re-arms
	m.SetThreshold([]byte("45"), at(10, 5, 0))
	if !m.CheckCrossing(46) {
		t.Error("crossing should report again after a new threshold")
	}
}

func TestCrossingInactiveMonitor(t *testing.T) {
	m := NewThresholdMonitor(0)
	if m.CheckCrossing(99) {
		t.Error("inactive monitor must never report")
	}
}

func TestResetCrossReportedReArms(t *testing.T) {
	m := NewThresholdMonitor(0)
	m.SetThreshold([]byte("40"), at(10, 0, 0))
	m.CheckCrossing(45)

	m.ResetCrossReported()
	if m.CrossReported() {
		t.Error("expected flag cleared while active")
	}
	if !m.CheckCrossing(45) {
		t.Error("crossing should report again after re-arm")
	}
}

func TestSecondsUntilNextCheck(t *testing.T) {
	m := NewThresholdMonitor(80 * time.Second)
	m.SetThreshold([]byte("40"), at(10, 0, 0))

	if got := m.SecondsUntilNextCheck(at(10, 0, 30)); got != 50 {
		t.Errorf("expected 50s remaining, got %g", got)
	}
	if got := m.SecondsUntilNextCheck(at(10, 2, 0)); got != -40 {
		t.Errorf("expected -40s (overdue), got %g", got)
	}

	m.MarkChecked(at(10, 2, 0))
	if got := m.SecondsUntilNextCheck(at(10, 2, 0)); got != 80 {
		t.Errorf("expected full interval after MarkChecked, got %g", got)
	}
}

func TestValueInactive(t *testing.T) {
	m := NewThresholdMonitor(0)
	if _, ok := m.Value(); ok {
		t.Error("expected no value while inactive")
	}
}
