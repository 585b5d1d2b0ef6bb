package decision

import (
	"math"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// MoisturePredictor maps a full sensor report to the optimal soil
// moisture percentage for those conditions.
type MoisturePredictor interface {
	OptimalMoisture(report model.SensorReport) (float64, error)
}

// WaterPredictor maps a conditions snapshot to a water quantity in mL.
type WaterPredictor interface {
	WaterQuantity(req model.WaterRequest) (float64, error)
}

// BaselineMoisture is a rule-based stand-in for a trained model: it
// nudges a 45% base up in hot or dry air and down when the soil is
// already nutrient rich, clamped to [25, 70].
type BaselineMoisture struct{}

func (BaselineMoisture) OptimalMoisture(r model.SensorReport) (float64, error) {
	v := 45.0
	v += (r.Temp - 24.0) * 0.6
	v += (55.0 - r.Humidity) * 0.2
	v -= (r.Nitrogen - 35.0) * 0.1
	v += (6.5 - r.PH) * 1.5
	return math.Min(70, math.Max(25, v)), nil
}

// BaselineWater always recommends a fixed dose. A per-crop model slots
// in behind the same interface.
type BaselineWater struct{}

func (BaselineWater) WaterQuantity(model.WaterRequest) (float64, error) {
	return 100, nil
}
