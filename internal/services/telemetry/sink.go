package telemetry

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sony/gobreaker"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// InfluxConfig carries the time-series backend connection.
type InfluxConfig struct {
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	Measurement  string
}

// ScalarTopics lists the bare-number readings the sink ingests, mapped
// to their Influx field names.
var ScalarTopics = map[string]string{
	model.Topic(model.TopicCheckMoisture): "soil_moisture",
	model.Topic(model.TopicTemperature):   "temperature",
	model.Topic(model.TopicAirHumidity):   "air_humidity",
	model.Topic(model.TopicNitrogen):      "nitrogen",
	model.Topic(model.TopicSoilPH):        "soil_ph",
}

// Topics returns the subscription list in a stable order.
func Topics() []string {
	out := make([]string, 0, len(ScalarTopics))
	for _, suffix := range []string{
		model.TopicCheckMoisture,
		model.TopicTemperature,
		model.TopicAirHumidity,
		model.TopicNitrogen,
		model.TopicSoilPH,
	} {
		out = append(out, model.Topic(suffix))
	}
	return out
}

// Sink writes scalar readings into Influx behind a circuit breaker, so
// a down backend sheds writes instead of stalling the bus client.
type Sink struct {
	writeAPI    api.WriteAPIBlocking
	measurement string
	plantID     string
	cb          *gobreaker.CircuitBreaker
	now         func() time.Time
}

func mkCB(name string, fails, openMs, intervalMs int) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: time.Duration(intervalMs) * time.Millisecond,
		Timeout:  time.Duration(openMs) * time.Millisecond,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
	})
}

func NewSink(cfg InfluxConfig, plantID string) (*Sink, error) {
	if cfg.InfluxURL == "" || cfg.InfluxToken == "" || cfg.InfluxOrg == "" || cfg.InfluxBucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket)

	measurement := cfg.Measurement
	if measurement == "" {
		measurement = "plant_readings"
	}
	return &Sink{
		writeAPI:    writeAPI,
		measurement: measurement,
		plantID:     plantID,
		cb:          mkCB("influx", 3, 5000, 60000),
		now:         time.Now,
	}, nil
}

// Handle ingests one scalar reading. Malformed payloads and unknown
// topics are dropped without failing the stream.
func (s *Sink) Handle(ctx context.Context, topic string, msg mqtt.Message) error {
	field, ok := ScalarTopics[topic]
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(msg.Payload())), 64)
	if err != nil {
		log.Printf("telemetry: invalid number on %s: %v", topic, err)
		return nil
	}

	point := influxdb2.NewPoint(s.measurement,
		map[string]string{"plant_id": s.plantID},
		map[string]interface{}{field: value},
		s.now())

	_, err = s.cb.Execute(func() (interface{}, error) {
		return nil, s.writeAPI.WritePoint(ctx, point)
	})
	if err != nil {
		log.Printf("telemetry: write %s: %v", field, err)
		return err
	}
	log.Printf("telemetry: wrote %s=%g plant=%s", field, value, s.plantID)
	return nil
}
