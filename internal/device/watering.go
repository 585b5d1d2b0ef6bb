package device

import (
	"log"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// DefaultPumpRate is the fixed pump throughput in mL per minute.
const DefaultPumpRate = 10.0

const timeLayout = "2006-01-02 15:04:05"

// WateringController is the Idle/Watering state machine. A cycle opens
// when moisture falls below the active threshold and closes when it
// comes back up to it, emitting a completion record. Owned by the main
// loop; no locking.
type WateringController struct {
	pumpRate float64
	plantID  int

	watering      bool
	startTime     time.Time
	startMoisture float64

	totalToday float64
	lastStop   time.Time
}

func NewWateringController(plantID int, pumpRate float64) *WateringController {
	if pumpRate <= 0 {
		pumpRate = DefaultPumpRate
	}
	return &WateringController{pumpRate: pumpRate, plantID: plantID}
}

// Observe feeds one moisture reading through the state machine.
// threshold nil means no automatic action can start; an open cycle
// still closes, since no threshold can hold it below anything. The
// returned event is non-nil exactly on the Watering→Idle transition.
func (w *WateringController) Observe(moisture float64, threshold *float64, env model.EnvSample, now time.Time) *model.WateringEvent {
	if threshold != nil && moisture < *threshold {
		if !w.watering {
			w.watering = true
			w.startTime = now
			w.startMoisture = moisture
			log.Printf("watering: cycle started at %s (moisture %.1f%% < %.1f%%)",
				now.Format(timeLayout), moisture, *threshold)
			return nil
		}
		log.Printf("watering: in progress %.1fs, ~%.1f mL delivered",
			now.Sub(w.startTime).Seconds(), w.CurrentVolume(now))
		return nil
	}

	if !w.watering {
		return nil
	}

	duration := now.Sub(w.startTime)
	added := duration.Minutes() * w.pumpRate
	w.totalToday += added
	w.lastStop = now
	w.watering = false
	log.Printf("watering: cycle complete, added %.1f mL (today %.1f mL)", added, w.totalToday)

	optimal := 0.0
	if threshold != nil {
		optimal = *threshold
	}
	return &model.WateringEvent{
		PlantID:            w.plantID,
		Temp:               env.Temperature,
		Humidity:           env.AirHumidity,
		Nitrogen:           env.NitrogenContent,
		PH:                 env.SoilPH,
		FormattedTime:      now.Format(timeLayout),
		DurationSeconds:    duration.Seconds(),
		WaterQuantity:      added,
		TotalWaterQuantity: w.totalToday,
		OptimalMoisture:    optimal,
		SoilMoistureNow:    moisture,
		InitialMoisture:    w.startMoisture,
		WateringType:       "automatic",
	}
}

// CurrentVolume is the volume delivered so far in the open cycle, zero
// when idle. Monotonic in now while a cycle stays open.
func (w *WateringController) CurrentVolume(now time.Time) float64 {
	if !w.watering {
		return 0
	}
	return now.Sub(w.startTime).Minutes() * w.pumpRate
}

// ResetDailyVolume zeroes the daily accumulator and returns the prior
// total. The caller owns day-boundary detection.
func (w *WateringController) ResetDailyVolume() float64 {
	prev := w.totalToday
	w.totalToday = 0
	log.Printf("watering: daily counter reset, previous value %.1f mL", prev)
	return prev
}

func (w *WateringController) Watering() bool      { return w.watering }
func (w *WateringController) TotalToday() float64 { return w.totalToday }

// LastStop is the close time of the most recent cycle; zero before any
// cycle has completed.
func (w *WateringController) LastStop() time.Time { return w.lastStop }
