package device

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// DefaultCheckInterval is how often the monitor re-reads moisture while
// a threshold is active and the crossing has not been reported yet.
const DefaultCheckInterval = 80 * time.Second

// ThresholdMonitor tracks the server-assigned moisture threshold and
// reports the upward crossing once per activation. It is owned by the
// main loop; no locking.
type ThresholdMonitor struct {
	active        bool
	value         float64
	crossReported bool
	lastCheck     time.Time
	checkInterval time.Duration
}

func NewThresholdMonitor(checkInterval time.Duration) *ThresholdMonitor {
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}
	return &ThresholdMonitor{checkInterval: checkInterval}
}

// SetThreshold accepts either {"threshold": <float>} or a bare numeric
// string. On success the monitor activates, clears the cross-reported
// flag and restarts the check timer. A parse failure returns
// ThresholdParseError and leaves all state untouched.
func (m *ThresholdMonitor) SetThreshold(payload []byte, now time.Time) (float64, error) {
	value, err := parseThreshold(payload)
	if err != nil {
		return 0, &model.ThresholdParseError{Payload: string(payload), Err: err}
	}

	m.value = value
	m.active = true
	m.crossReported = false
	m.lastCheck = now
	log.Printf("threshold: new moisture threshold set: %g", value)
	return value, nil
}

func parseThreshold(payload []byte) (float64, error) {
	var u model.ThresholdUpdate
	if err := json.Unmarshal(payload, &u); err == nil && u.Threshold != nil {
		return *u.Threshold, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// CheckCrossing reports the upward crossing exactly once per
// activation. Inactive monitors always return false.
func (m *ThresholdMonitor) CheckCrossing(moisture float64) bool {
	if !m.active {
		return false
	}
	if moisture > m.value && !m.crossReported {
		log.Printf("threshold: moisture %.1f%% above threshold %.1f%%", moisture, m.value)
		m.crossReported = true
		return true
	}
	return false
}

// SecondsUntilNextCheck may be negative, meaning the check is overdue.
func (m *ThresholdMonitor) SecondsUntilNextCheck(now time.Time) float64 {
	return m.checkInterval.Seconds() - now.Sub(m.lastCheck).Seconds()
}

// MarkChecked restarts the periodic check timer.
func (m *ThresholdMonitor) MarkChecked(now time.Time) { m.lastCheck = now }

// ResetCrossReported re-arms crossing detection. The loop calls this on
// every scheduled reading while monitoring is active.
func (m *ThresholdMonitor) ResetCrossReported() {
	if m.active {
		m.crossReported = false
	}
}

func (m *ThresholdMonitor) Active() bool        { return m.active }
func (m *ThresholdMonitor) CrossReported() bool { return m.crossReported }

// Value returns the current threshold; ok is false while inactive.
func (m *ThresholdMonitor) Value() (float64, bool) {
	if !m.active {
		return 0, false
	}
	return m.value, true
}
