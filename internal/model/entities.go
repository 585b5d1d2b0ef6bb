package model

import "fmt"

// ScheduleEntry is one fixed daily reading time.
type ScheduleEntry struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Label  string `json:"name"`
}

func (e ScheduleEntry) String() string {
	return fmt.Sprintf("%s %02d:%02d", e.Label, e.Hour, e.Minute)
}

// Minutes returns the entry's offset from midnight.
func (e ScheduleEntry) Minutes() int { return e.Hour*60 + e.Minute }

// EnvSample is one environmental snapshot taken alongside a moisture
// reading.
type EnvSample struct {
	Temperature     float64 `json:"temperature"`
	AirHumidity     float64 `json:"air_humidity"`
	SoilPH          float64 `json:"soil_ph"`
	NitrogenContent float64 `json:"nitrogen_content"`
}
