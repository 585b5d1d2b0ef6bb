package mqttconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config describes one broker endpoint.
type Config struct {
	Host     string
	Port     int // TLS port; PlainPort is tried by the last fallback strategy
	User     string
	Password string
	ClientID string
}

// clientID returns the configured id with a random suffix, so a restart
// or a second instance never kicks the live session off the broker.
func (c Config) clientID() string {
	base := c.ClientID
	if base == "" {
		base = "client"
	}
	return base + "-" + uuid.NewString()[:8]
}

// Strategy is one way of reaching the broker. Strategies are tried in
// order by Dial; the first successful connection wins.
type Strategy struct {
	Name string
	Port int
	TLS  *tls.Config // nil means plaintext tcp
}

const plainPort = 1883

// Strategies returns the connection fallback ladder: strict certificate
// validation, relaxed validation, then unencrypted transport.
func Strategies(cfg Config) []Strategy {
	return []Strategy{
		{Name: "tls-strict", Port: cfg.Port, TLS: &tls.Config{ServerName: cfg.Host}},
		{Name: "tls-insecure", Port: cfg.Port, TLS: &tls.Config{InsecureSkipVerify: true}},
		{Name: "plain", Port: plainPort, TLS: nil},
	}
}

func (s Strategy) brokerURL(host string) string {
	scheme := "tcp"
	if s.TLS != nil {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, s.Port)
}

// Options builds paho client options for this strategy.
func (s Strategy) Options(cfg Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.brokerURL(cfg.Host))
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.clientID())
	opts.SetCleanSession(true)
	if s.TLS != nil {
		opts.SetTLSConfig(s.TLS)
	}
	return opts
}

// ConnectFunc connects one strategy. Swappable in tests.
type ConnectFunc func(ctx context.Context, s Strategy) (mqtt.Client, error)

// PahoConnect is the production ConnectFunc.
func PahoConnect(cfg Config) ConnectFunc {
	return func(_ context.Context, s Strategy) (mqtt.Client, error) {
		client := mqtt.NewClient(s.Options(cfg))
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, token.Error()
		}
		return client, nil
	}
}

// Dial walks the strategy ladder and returns the first client that
// connects, along with the strategy that succeeded.
func Dial(ctx context.Context, strategies []Strategy, connect ConnectFunc) (mqtt.Client, Strategy, error) {
	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, Strategy{}, err
		}
		client, err := connect(ctx, s)
		if err != nil {
			log.Printf("mqttconn: %s connect failed: %v", s.Name, err)
			lastErr = err
			continue
		}
		log.Printf("mqttconn: connected via %s", s.Name)
		return client, s, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no connection strategies configured")
	}
	return nil, Strategy{}, fmt.Errorf("all connection strategies failed: %w", lastErr)
}

// NewConn connects to the broker with exponential-backoff retries over
// a single strategy (plaintext). Server-side services use this; the
// device goes through Dial so it can fall back across TLS modes.
func NewConn(ctx context.Context, cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.clientID())
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	const maxRetries = 5

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("mqttconn: broker connect failed: %v", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Printf("mqttconn: connected to %s:%d", cfg.Host, cfg.Port)

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Println("mqttconn: connection closed")
	}()

	return client, nil
}

// CloseConn disconnects the client if it is still connected.
func CloseConn(client mqtt.Client) {
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		log.Println("mqttconn: connection closed")
	}
}
