package mqttconn

import (
	"context"
	"errors"
	"strings"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func TestStrategiesLadderOrder(t *testing.T) {
	cfg := Config{Host: "broker.example", Port: 8883}
	got := Strategies(cfg)
	if len(got) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(got))
	}
	if got[0].Name != "tls-strict" || got[1].Name != "tls-insecure" || got[2].Name != "plain" {
		t.Errorf("wrong ladder order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}
	if got[0].TLS == nil || got[0].TLS.InsecureSkipVerify {
		t.Error("first strategy must validate certificates")
	}
	if got[1].TLS == nil || !got[1].TLS.InsecureSkipVerify {
		t.Error("second strategy must relax validation")
	}
	if got[2].TLS != nil {
		t.Error("last strategy must be plaintext")
	}
	if got[2].Port != 1883 {
		t.Errorf("plaintext strategy should use port 1883, got %d", got[2].Port)
	}
}

func TestDialStopsAtFirstSuccess(t *testing.T) {
	var tried []string
	connect := func(_ context.Context, s Strategy) (mqtt.Client, error) {
		tried = append(tried, s.Name)
		if s.Name == "tls-insecure" {
			return mqtt.NewClient(mqtt.NewClientOptions()), nil
		}
		return nil, errors.New("refused")
	}

	_, used, err := Dial(context.Background(), Strategies(Config{Host: "h", Port: 8883}), connect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used.Name != "tls-insecure" {
		t.Errorf("expected tls-insecure to win, got %s", used.Name)
	}
	if len(tried) != 2 {
		t.Errorf("ladder should stop at first success, tried %v", tried)
	}
}

func TestDialAllLayersFail(t *testing.T) {
	connect := func(_ context.Context, _ Strategy) (mqtt.Client, error) {
		return nil, errors.New("refused")
	}
	_, _, err := Dial(context.Background(), Strategies(Config{Host: "h", Port: 8883}), connect)
	if err == nil {
		t.Fatal("expected error when every layer fails")
	}
}

func TestDialHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	connect := func(_ context.Context, _ Strategy) (mqtt.Client, error) {
		calls++
		return nil, errors.New("refused")
	}
	_, _, err := Dial(ctx, Strategies(Config{Host: "h", Port: 8883}), connect)
	if err == nil {
		t.Fatal("expected context error")
	}
	if calls != 0 {
		t.Errorf("should not attempt connections after cancel, made %d", calls)
	}
}

func TestStrategyBrokerURL(t *testing.T) {
	s := Strategy{Name: "plain", Port: 1883}
	if got := s.brokerURL("broker.example"); got != "tcp://broker.example:1883" {
		t.Errorf("plain url = %s", got)
	}
	tls := Strategies(Config{Host: "broker.example", Port: 8883})[0]
	if got := tls.brokerURL("broker.example"); got != "ssl://broker.example:8883" {
		t.Errorf("tls url = %s", got)
	}
}

func TestClientIDSuffixed(t *testing.T) {
	cfg := Config{ClientID: "node"}
	a, b := cfg.clientID(), cfg.clientID()
	if !strings.HasPrefix(a, "node-") {
		t.Errorf("expected node- prefix, got %q", a)
	}
	if a == b {
		t.Error("two sessions must not share a client id")
	}
	if got := (Config{}).clientID(); !strings.HasPrefix(got, "client-") {
		t.Errorf("expected fallback prefix, got %q", got)
	}
}
