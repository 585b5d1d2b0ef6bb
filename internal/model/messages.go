package model

// Wire schemas for the mqtt/* topics. Field names match the payloads
// the node publishes, including the pH capitalisation.

// SensorReport is the combined scheduled reading published on
// get_optimal_moisture. Threshold fields are present only while
// threshold monitoring is active.
type SensorReport struct {
	Period              string   `json:"period"`
	SoilMoisturePercent float64  `json:"soil_moisture_percent"`
	SoilMoistureAnalog  int      `json:"soil_moisture_analog"`
	VoltageMV           int      `json:"voltage_mv"`
	IsDry               bool     `json:"is_dry"`
	Temp                float64  `json:"temp"`
	Humidity            float64  `json:"humidity"`
	PH                  float64  `json:"pH"`
	Nitrogen            float64  `json:"nitrogen"`
	Timestamp           int64    `json:"timestamp"`
	PlantID             int      `json:"plant_id"`
	MoistureThreshold   *float64 `json:"moisture_threshold,omitempty"`
	ThresholdStatus     string   `json:"threshold_status,omitempty"`
}

// WateringEvent is published on moisture_alert when a watering cycle
// completes. It carries the full record the server persists.
type WateringEvent struct {
	PlantID            int     `json:"plant_id"`
	Temp               float64 `json:"temp"`
	Humidity           float64 `json:"humidity"`
	Nitrogen           float64 `json:"nitrogen"`
	PH                 float64 `json:"pH"`
	FormattedTime      string  `json:"formatted_time"`
	DurationSeconds    float64 `json:"duration_seconds"`
	WaterQuantity      float64 `json:"water_quantity"`
	TotalWaterQuantity float64 `json:"total_water_quantity"`
	OptimalMoisture    float64 `json:"optimal_moisture"`
	SoilMoistureNow    float64 `json:"soil_moisture_now"`
	InitialMoisture    float64 `json:"initial_moisture"`
	WateringType       string  `json:"watering_type"`
}

// ThresholdUpdate is the structured form of an
// optimal_moisture_threshold message. The topic also accepts a bare
// numeric string.
type ThresholdUpdate struct {
	Threshold *float64 `json:"threshold"`
}

// WaterRequest is the conditions object sent on get_water_quantity.
type WaterRequest struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
	PH       float64 `json:"pH"`
	Nitrogen float64 `json:"nitrogen"`
	PlantID  int     `json:"plant_id"`
}

const (
	// TopicPrefix is prepended to every topic suffix on the bus.
	TopicPrefix = "mqtt/"

	TopicThreshold          = "optimal_moisture_threshold"
	TopicGetOptimalMoisture = "get_optimal_moisture"
	TopicMoistureAlert      = "moisture_alert"
	TopicGetWaterQuantity   = "get_water_quantity"
	TopicWaterQuantity      = "water_quantity"
	TopicCheckMoisture      = "check_moisture"
	TopicTemperature        = "temperature"
	TopicAirHumidity        = "air_humidity"
	TopicNitrogen           = "nitrogen"
	TopicSoilPH             = "soil_ph"
)

// Topic joins the prefix and a suffix.
func Topic(suffix string) string { return TopicPrefix + suffix }
