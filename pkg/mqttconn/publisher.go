package mqttconn

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes string payloads to one bound topic.
type IPublisher interface {
	PublishMessage(payload string) error
	PublishToQos(qos byte, retained bool, payload string) error
	Close()
}

// Publisher binds an MQTT client to a single topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishMessage publishes at QoS 0, not retained.
func (p *Publisher) PublishMessage(payload string) error {
	return p.PublishToQos(0, false, payload)
}

func (p *Publisher) PublishToQos(qos byte, retained bool, payload string) error {
	token := p.client.Publish(p.topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, token.Error())
	}
	log.Printf("mqttconn: published to %s: %s", p.topic, payload)
	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Println("mqttconn: publisher client disconnected")
	}
}
