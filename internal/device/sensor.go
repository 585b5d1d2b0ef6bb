package device

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// Sensor is the moisture-probe driver contract. A read runs to
// completion or fails; failures are per-cycle transient.
type Sensor interface {
	ReadMoisturePercent() (float64, error)
	ReadAnalog() (int, error)
	ReadDigital() (bool, error) // true when the probe reports dry
	ReadVoltageMV() (int, error)
}

// Reading is one full sensor sample.
type Reading struct {
	Percent   float64
	Analog    int
	VoltageMV int
	Dry       bool
}

// readAll takes a complete sample, wrapping any failure as a
// SensorReadError so the loop can skip the cycle.
func readAll(s Sensor) (Reading, error) {
	percent, err := s.ReadMoisturePercent()
	if err != nil {
		return Reading{}, &model.SensorReadError{Err: err}
	}
	analog, err := s.ReadAnalog()
	if err != nil {
		return Reading{}, &model.SensorReadError{Err: err}
	}
	voltage, err := s.ReadVoltageMV()
	if err != nil {
		return Reading{}, &model.SensorReadError{Err: err}
	}
	dry, err := s.ReadDigital()
	if err != nil {
		return Reading{}, &model.SensorReadError{Err: err}
	}
	return Reading{Percent: percent, Analog: analog, VoltageMV: voltage, Dry: dry}, nil
}

// moistureScale converts the probe's raw humidity ratio into the
// percentage the rest of the pipeline works with.
const moistureScale = 45.0

// SimSensor stands in for the earth probe when no hardware is attached.
// Soil moisture decays slowly between reads and jitters a little, so
// scheduled readings and threshold checks see plausible movement.
type SimSensor struct {
	mu          sync.Mutex
	moisture    float64 // raw ratio, 0..1 before scaling
	decayPerMin float64
	last        time.Time
	rng         *rand.Rand
	now         func() time.Time
}

func NewSimSensor(seedMoisture, decayPerMin float64) *SimSensor {
	return &SimSensor{
		moisture:    clamp01(seedMoisture),
		decayPerMin: math.Max(0, decayPerMin),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

func (s *SimSensor) step() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.last.IsZero() {
		dtMin := now.Sub(s.last).Minutes()
		if dtMin > 0 {
			s.moisture = clamp01(s.moisture - s.decayPerMin*dtMin)
		}
	}
	s.last = now
	// small read-to-read jitter
	return clamp01(s.moisture + (s.rng.Float64()*2-1)*0.01)
}

func (s *SimSensor) ReadMoisturePercent() (float64, error) {
	return s.step() * moistureScale, nil
}

func (s *SimSensor) ReadAnalog() (int, error) {
	return int(s.step() * 4095), nil
}

func (s *SimSensor) ReadDigital() (bool, error) {
	return s.step()*moistureScale < 20, nil
}

func (s *SimSensor) ReadVoltageMV() (int, error) {
	return 1000 + int(s.step()*2300), nil
}

// Water raises the simulated soil moisture as if a pump had run for d.
func (s *SimSensor) Water(d time.Duration) {
	const gainPerMin = 0.006
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moisture = clamp01(s.moisture + gainPerMin*d.Minutes())
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// EnvSampler produces environmental snapshots with the field-survey
// distributions baked in: uniform spread around each mean, truncated to
// the observed range.
type EnvSampler struct {
	rng *rand.Rand
}

func NewEnvSampler(seed int64) *EnvSampler {
	return &EnvSampler{rng: rand.New(rand.NewSource(seed))}
}

func (g *EnvSampler) spread(mean, std, lo, hi float64) float64 {
	v := mean + (g.rng.Float64()*2-1)*std
	return math.Max(lo, math.Min(hi, v))
}

func (g *EnvSampler) Sample() model.EnvSample {
	return model.EnvSample{
		Temperature:     round1(g.spread(23.87, 3.65, 18.02, 29.99)),
		AirHumidity:     round1(g.spread(57.21, 9.03, 41.39, 69.69)),
		SoilPH:          round2(g.spread(6.56, 0.57, 5.56, 7.50)),
		NitrogenContent: round1(g.spread(37.22, 8.96, 21.98, 49.30)),
	}
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
