package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"github.com/skapoor1902/vruksh.aiot-master/internal/device"
	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
	"github.com/skapoor1902/vruksh.aiot-master/pkg/mqttconn"
)

func mustEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	if def != "" {
		return def
	}
	log.Fatalf("missing required env %s", k)
	return ""
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", k, err)
	}
	return n
}

func envFloat(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", k, err)
	}
	return f
}

func main() {
	_ = godotenv.Load()

	// ---- ENV ----
	cfg := mqttconn.Config{
		Host:     mustEnv("MQTT_HOST", ""),
		Port:     envInt("MQTT_PORT", 8883),
		User:     mustEnv("MQTT_USER", ""),
		Password: mustEnv("MQTT_PASSWORD", ""),
		ClientID: mustEnv("MQTT_CLIENTID", "plant-node"),
	}
	plantID := envInt("PLANT_ID", 1)
	pumpRate := envFloat("PUMP_RATE_ML_PER_MIN", device.DefaultPumpRate)
	probeAddr := mustEnv("LINK_PROBE_ADDR", "8.8.8.8:53")
	seedMoisture := envFloat("SIM_SEED_MOISTURE", 0.55)
	decayPerMin := envFloat("SIM_DECAY_PER_MIN", 0.02)

	schedule := device.DefaultSchedule
	if raw := strings.TrimSpace(os.Getenv("SCHEDULE")); raw != "" {
		parsed, err := device.ParseSchedule(raw)
		if err != nil {
			log.Fatalf("invalid SCHEDULE: %v", err)
		}
		schedule = parsed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---- sensors ----
	sensor := device.NewSimSensor(seedMoisture, decayPerMin)
	env := device.NewEnvSampler(time.Now().UnixNano())

	monitor := device.NewThresholdMonitor(device.DefaultCheckInterval)
	waterer := device.NewWateringController(plantID, pumpRate)

	loop := device.NewLoop(device.Config{
		PlantID:  plantID,
		Schedule: schedule,
	}, sensor, env, nil, nil, monitor, waterer)

	// every (re)connection resubscribes the threshold topic and bridges
	// deliveries into the loop's inbox
	session := device.NewPahoSession(cfg, func(client mqtt.Client) error {
		topic := model.Topic(model.TopicThreshold)
		token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			select {
			case loop.Inbox() <- device.Inbound{Topic: msg.Topic(), Payload: msg.Payload()}:
			default:
				log.Printf("device: inbox full, dropping message on %s", msg.Topic())
			}
		})
		token.Wait()
		return token.Error()
	})
	link := &device.TCPLink{Addr: probeAddr}
	conn := device.NewConnectivity(link, session)
	loop.Attach(conn, session)
	loop.OnShutdown = session.Close

	if !conn.EnsureConnected(ctx) {
		log.Printf("device: broker unreachable at startup, will keep retrying")
	}

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("device: %v", err)
	}
}
