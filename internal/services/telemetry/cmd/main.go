package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"github.com/skapoor1902/vruksh.aiot-master/internal/services/telemetry"
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

func main() {
	_ = godotenv.Load()

	cfg := mqttconn.Config{
		Host:     mustEnv("MQTT_HOST", ""),
		Port:     envInt("MQTT_PORT", 1883),
		User:     mustEnv("MQTT_USER", ""),
		Password: mustEnv("MQTT_PASSWORD", ""),
		ClientID: mustEnv("MQTT_CLIENTID", "telemetry-sink"),
	}
	influx := telemetry.InfluxConfig{
		InfluxURL:    mustEnv("INFLUX_URL", ""),
		InfluxToken:  mustEnv("INFLUX_TOKEN", ""),
		InfluxOrg:    mustEnv("INFLUX_ORG", ""),
		InfluxBucket: mustEnv("INFLUX_BUCKET", ""),
		Measurement:  mustEnv("INFLUX_MEASUREMENT", "plant_readings"),
	}
	plantID := mustEnv("PLANT_ID", "1")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink, err := telemetry.NewSink(influx, plantID)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	client, err := mqttconn.NewConn(ctx, cfg)
	if err != nil {
		log.Fatalf("MQTT connect error: %v", err)
	}
	defer mqttconn.CloseConn(client)

	consumer := mqttconn.NewMultiConsumer(client, telemetry.Topics(), func(topic string, msg mqtt.Message) error {
		return sink.Handle(ctx, topic, msg)
	})

	log.Printf("telemetry: listening on %s", strings.Join(telemetry.Topics(), ", "))
	consumer.ConsumeMessage(ctx)
	<-ctx.Done()
	log.Println("shutting down...")
}
