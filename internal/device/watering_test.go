package device

import (
	"math"
	"testing"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

func thr(v float64) *float64 { return &v }

var testEnv = model.EnvSample{Temperature: 24.5, AirHumidity: 58.0, SoilPH: 6.5, NitrogenContent: 36.0}

func TestWateringCycleEmitsEventOnClose(t *testing.T) {
	w := NewWateringController(7, 10)
	t0 := at(10, 0, 0)

	readings := []float64{25, 30, 38}
	for i, m := range readings {
		if evt := w.Observe(m, thr(40), testEnv, t0.Add(time.Duration(i)*80*time.Second)); evt != nil {
			t.Fatalf("reading %g: no event expected mid-cycle", m)
		}
	}
	if !w.Watering() {
		t.Fatal("expected open cycle")
	}

	evt := w.Observe(45, thr(40), testEnv, t0.Add(4*time.Minute))
	if evt == nil {
		t.Fatal("expected completion event")
	}
	if w.Watering() {
		t.Error("cycle should be closed")
	}

	if evt.PlantID != 7 {
		t.Errorf("plant id: got %d", evt.PlantID)
	}
	if evt.InitialMoisture != 25 {
		t.Errorf("initial moisture: got %g", evt.InitialMoisture)
	}
	if evt.SoilMoistureNow != 45 {
		t.Errorf("closing moisture: got %g", evt.SoilMoistureNow)
	}
	if evt.OptimalMoisture != 40 {
		t.Errorf("optimal moisture: got %g", evt.OptimalMoisture)
	}
	if evt.DurationSeconds != 240 {
		t.Errorf("duration: got %g", evt.DurationSeconds)
	}
	// 4 minutes at 10 mL/min
	if evt.WaterQuantity != 40 {
		t.Errorf("water quantity: got %g", evt.WaterQuantity)
	}
	if evt.TotalWaterQuantity != 40 {
		t.Errorf("total: got %g", evt.TotalWaterQuantity)
	}
	if evt.WateringType != "automatic" {
		t.Errorf("watering type: got %q", evt.WateringType)
	}
	if evt.FormattedTime != "2025-06-10 10:04:00" {
		t.Errorf("formatted time: got %q", evt.FormattedTime)
	}
	if evt.Temp != testEnv.Temperature || evt.PH != testEnv.SoilPH {
		t.Errorf("env snapshot not carried: %+v", evt)
	}
}

func TestCurrentVolumeMonotonic(t *testing.T) {
	w := NewWateringController(1, 10)
	t0 := at(10, 0, 0)
	w.Observe(30, thr(40), testEnv, t0)

	prev := -1.0
	for s := 0; s <= 300; s += 30 {
		v := w.CurrentVolume(t0.Add(time.Duration(s) * time.Second))
		if v < prev {
			t.Fatalf("volume decreased: %g after %g at +%ds", v, prev, s)
		}
		prev = v
	}
	if math.Abs(prev-50) > 1e-9 {
		t.Errorf("expected 50 mL after 5 min, got %g", prev)
	}
}

func TestCurrentVolumeZeroWhileIdle(t *testing.T) {
	w := NewWateringController(1, 10)
	if v := w.CurrentVolume(at(10, 0, 0)); v != 0 {
		t.Errorf("expected 0 while idle, got %g", v)
	}
}

func TestNoThresholdMeansNoStart(t *testing.T) {
	w := NewWateringController(1, 10)
	if evt := w.Observe(5, nil, testEnv, at(10, 0, 0)); evt != nil {
		t.Error("no event expected")
	}
	if w.Watering() {
		t.Error("cycle must not start without a threshold")
	}
}

func TestThresholdClearedClosesOpenCycle(t *testing.T) {
	w := NewWateringController(1, 10)
	t0 := at(10, 0, 0)
	w.Observe(30, thr(40), testEnv, t0)

	evt := w.Observe(31, nil, testEnv, t0.Add(2*time.Minute))
	if evt == nil {
		t.Fatal("open cycle should close when the threshold disappears")
	}
	if evt.OptimalMoisture != 0 {
		t.Errorf("expected zero optimal moisture, got %g", evt.OptimalMoisture)
	}
	if evt.WaterQuantity != 20 {
		t.Errorf("expected 20 mL over 2 min, got %g", evt.WaterQuantity)
	}
}

func TestDailyAccumulationAndReset(t *testing.T) {
	w := NewWateringController(1, 10)
	t0 := at(8, 0, 0)

	w.Observe(30, thr(40), testEnv, t0)
	w.Observe(45, thr(40), testEnv, t0.Add(1*time.Minute)) // 10 mL
	w.Observe(30, thr(40), testEnv, t0.Add(10*time.Minute))
	evt := w.Observe(45, thr(40), testEnv, t0.Add(13*time.Minute)) // 30 mL

	if w.TotalToday() != 40 {
		t.Errorf("expected 40 mL today, got %g", w.TotalToday())
	}
	if evt.TotalWaterQuantity != 40 {
		t.Errorf("event total: got %g", evt.TotalWaterQuantity)
	}
	if got := w.LastStop(); !got.Equal(t0.Add(13 * time.Minute)) {
		t.Errorf("last stop: got %s", got)
	}

	if prev := w.ResetDailyVolume(); prev != 40 {
		t.Errorf("reset should return prior total, got %g", prev)
	}
	if w.TotalToday() != 0 {
		t.Errorf("expected zeroed accumulator, got %g", w.TotalToday())
	}
}
