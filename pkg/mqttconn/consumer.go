package mqttconn

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one delivery. Returning an error only logs it; the
// subscription stays up.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes to one or more topics and feeds a handler.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// qosFor picks QoS1 for topics whose loss would drop a watering record;
// everything else is best-effort.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasSuffix(t, "/moisture_alert") {
		return 1
	}
	return 0
}

// Consumer subscribes to a single topic.
type Consumer struct {
	client  mqtt.Client
	topic   string
	handler Handler
}

func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return &Consumer{client: client, topic: topic, handler: handler}
}

func (c *Consumer) SetHandler(handler Handler) { c.handler = handler }

// ConsumeMessage subscribes and blocks until the context is cancelled,
// then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(c.topic, qosFor(c.topic), func(_ mqtt.Client, message mqtt.Message) {
		if c.handler == nil {
			log.Printf("mqttconn: no handler set for topic %s", c.topic)
			return
		}
		if err := c.handler(message.Topic(), message); err != nil {
			log.Printf("mqttconn: error handling message on %s: %v", message.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("mqttconn: error subscribing to %s: %v", c.topic, token.Error())
		return
	}
	log.Printf("mqttconn: subscribed to %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}

// MultiConsumer subscribes to several topics with one handler.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *MultiConsumer {
	return &MultiConsumer{client: client, topics: topics, handler: handler}
}

func (m *MultiConsumer) SetHandler(handler Handler) { m.handler = handler }

func (m *MultiConsumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range m.topics {
		token := m.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if m.handler == nil {
				log.Printf("mqttconn: no handler set for topic %s", msg.Topic())
				return
			}
			if err := m.handler(msg.Topic(), msg); err != nil {
				log.Printf("mqttconn: error handling message on %s: %v", msg.Topic(), err)
			}
		})
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqttconn: error subscribing to %s: %v", topic, token.Error())
		} else {
			log.Printf("mqttconn: subscribed to %s", topic)
		}
	}

	<-ctx.Done()

	for _, topic := range m.topics {
		m.client.Unsubscribe(topic)
	}
}
