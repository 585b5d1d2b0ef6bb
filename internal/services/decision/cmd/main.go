package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"github.com/skapoor1902/vruksh.aiot-master/internal/services/decision"
	"github.com/skapoor1902/vruksh.aiot-master/pkg/dedup"
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
		ClientID: mustEnv("MQTT_CLIENTID", "decision-service"),
	}
	dbPath := mustEnv("SQLITE_PATH", "./data/decision.db")
	httpAddr := mustEnv("HTTP_ADDR", ":8090")
	dedupTTL := time.Duration(envInt("DEDUP_TTL_SECONDS", 300)) * time.Second

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := decision.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	client, err := mqttconn.NewConn(ctx, cfg)
	if err != nil {
		log.Fatalf("MQTT connect error: %v", err)
	}
	defer mqttconn.CloseConn(client)

	pubs := func(topic string) mqttconn.IPublisher {
		return mqttconn.NewPublisher(client, topic)
	}
	svc := decision.NewService(decision.BaselineMoisture{}, decision.BaselineWater{}, store,
		dedup.New(dedupTTL, 4096), pubs)

	consumer := mqttconn.NewMultiConsumer(client, decision.Topics(), func(topic string, msg mqtt.Message) error {
		return svc.Handle(topic, msg)
	})
	go consumer.ConsumeMessage(ctx)

	api := decision.NewAPI(store)
	srv := &http.Server{Addr: httpAddr, Handler: api.Routes()}
	go func() {
		log.Printf("decision: HTTP on %s", httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP serve error: %v", err)
		}
	}()

	log.Printf("decision: listening on %s", strings.Join(decision.Topics(), ", "))
	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 3*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
}
