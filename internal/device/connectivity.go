package device

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
	"github.com/skapoor1902/vruksh.aiot-master/pkg/mqttconn"
)

// LinkChecker reports and restores the network link underneath the bus
// session.
type LinkChecker interface {
	Up() bool
	Reconnect(ctx context.Context) error
}

// BusSession is the device's bus connection: liveness probe plus full
// reconnect through the strategy ladder.
type BusSession interface {
	Alive() bool
	Reconnect(ctx context.Context) error
	Close()
}

// Connectivity checks the two channels in order: network link first,
// then bus session. Every failure is non-fatal; the caller stays in its
// current state and tries again next cycle.
type Connectivity struct {
	link LinkChecker
	bus  BusSession

	linkTimeout time.Duration
	linkPoll    time.Duration
	sleep       func(time.Duration)
}

func NewConnectivity(link LinkChecker, bus BusSession) *Connectivity {
	return &Connectivity{
		link:        link,
		bus:         bus,
		linkTimeout: 10 * time.Second,
		linkPoll:    100 * time.Millisecond,
		sleep:       time.Sleep,
	}
}

// EnsureConnected returns true when both channels are up. false means
// stay put and retry next cycle.
func (c *Connectivity) EnsureConnected(ctx context.Context) bool {
	if !c.link.Up() {
		log.Printf("connectivity: network link down, reconnecting...")
		if err := c.reconnectLink(ctx); err != nil {
			log.Printf("connectivity: %v", err)
			return false
		}
	}

	if c.bus.Alive() {
		return true
	}
	log.Printf("connectivity: bus session down, reconnecting...")
	if err := c.bus.Reconnect(ctx); err != nil {
		log.Printf("connectivity: %v", err)
		return false
	}
	return true
}

// reconnectLink kicks one reconnect attempt and polls link state every
// linkPoll up to linkTimeout.
func (c *Connectivity) reconnectLink(ctx context.Context) error {
	if err := c.link.Reconnect(ctx); err != nil {
		return &model.NetworkConnectError{Err: err}
	}
	deadline := time.Now().Add(c.linkTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return &model.NetworkConnectError{Err: ctx.Err()}
		}
		if c.link.Up() {
			log.Printf("connectivity: network link restored")
			return nil
		}
		c.sleep(c.linkPoll)
	}
	return &model.NetworkConnectError{Err: fmt.Errorf("link still down after %s", c.linkTimeout)}
}

// TCPLink probes the link with a dial to a well-known address. The
// kernel owns actual interface recovery, so Reconnect just lets the
// manager's poll window run.
type TCPLink struct {
	Addr    string
	Timeout time.Duration
}

func (l *TCPLink) Up() bool {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	conn, err := net.DialTimeout("tcp", l.Addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (l *TCPLink) Reconnect(context.Context) error { return nil }

// PahoSession is the production BusSession: a paho client rebuilt
// through the TLS fallback ladder on reconnect, resubscribing the
// threshold topic each time.
type PahoSession struct {
	cfg        mqttconn.Config
	strategies []mqttconn.Strategy
	connect    mqttconn.ConnectFunc
	onConnect  func(mqtt.Client) error

	client mqtt.Client
}

func NewPahoSession(cfg mqttconn.Config, onConnect func(mqtt.Client) error) *PahoSession {
	return &PahoSession{
		cfg:        cfg,
		strategies: mqttconn.Strategies(cfg),
		connect:    mqttconn.PahoConnect(cfg),
		onConnect:  onConnect,
	}
}

func (s *PahoSession) Alive() bool {
	return s.client != nil && s.client.IsConnectionOpen()
}

func (s *PahoSession) Reconnect(ctx context.Context) error {
	client, strat, err := mqttconn.Dial(ctx, s.strategies, s.connect)
	if err != nil {
		return &model.BusConnectError{Err: err}
	}
	if s.onConnect != nil {
		if err := s.onConnect(client); err != nil {
			client.Disconnect(250)
			return &model.BusConnectError{Err: err}
		}
	}
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	s.client = client
	log.Printf("connectivity: bus session up via %s", strat.Name)
	return nil
}

func (s *PahoSession) Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
		log.Printf("connectivity: bus session closed")
	}
}

// Publish sends a payload to prefix+suffix. Structured payloads go out
// as JSON, scalars stringified. Fire and forget: errors are returned
// for logging only, nothing is queued.
func (s *PahoSession) Publish(suffix string, payload any) error {
	if s.client == nil {
		return &model.BusConnectError{Err: fmt.Errorf("no bus session")}
	}
	body, err := encodePayload(payload)
	if err != nil {
		return err
	}
	topic := model.Topic(suffix)
	token := s.client.Publish(topic, 0, false, body)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	log.Printf("device: published to %s: %s", topic, body)
	return nil
}

func encodePayload(payload any) (string, error) {
	switch v := payload.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode payload: %w", err)
		}
		return string(b), nil
	}
}
