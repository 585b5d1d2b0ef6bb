package decision

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
	"github.com/skapoor1902/vruksh.aiot-master/pkg/dedup"
	"github.com/skapoor1902/vruksh.aiot-master/pkg/mqttconn"
)

// PublisherFactory yields a publisher bound to one topic.
type PublisherFactory func(topic string) mqttconn.IPublisher

// Topics lists the subscriptions the service dispatches on.
func Topics() []string {
	return []string{
		model.Topic(model.TopicGetOptimalMoisture),
		model.Topic(model.TopicMoistureAlert),
		model.Topic(model.TopicGetWaterQuantity),
	}
}

// Service routes the three inbound topics to their predictors and the
// store. Handlers run on the bus client's delivery goroutine, one
// message at a time.
type Service struct {
	moisture MoisturePredictor
	water    WaterPredictor
	store    Store
	dedup    *dedup.Deduper
	pubs     PublisherFactory
}

func NewService(moisture MoisturePredictor, water WaterPredictor, store Store, d *dedup.Deduper, pubs PublisherFactory) *Service {
	return &Service{
		moisture: moisture,
		water:    water,
		store:    store,
		dedup:    d,
		pubs:     pubs,
	}
}

// Handle is the shared bus handler for every subscribed topic.
func (s *Service) Handle(topic string, msg mqtt.Message) error {
	payload := msg.Payload()
	if s.dedup.Seen(topic, payload) {
		duplicatesTotal.Inc()
		log.Printf("decision: duplicate on %s dropped", topic)
		return nil
	}

	switch topic {
	case model.Topic(model.TopicGetOptimalMoisture):
		return s.handleReport(topic, payload)
	case model.Topic(model.TopicMoistureAlert):
		return s.handleWateringDone(topic, payload)
	case model.Topic(model.TopicGetWaterQuantity):
		return s.handleWaterRequest(topic, payload)
	default:
		messagesTotal.WithLabelValues(topic, outcomeIgnored).Inc()
		return nil
	}
}

// handleReport answers a scheduled sensor report with the optimal
// moisture threshold for its conditions.
func (s *Service) handleReport(topic string, payload []byte) error {
	var report model.SensorReport
	if err := json.Unmarshal(payload, &report); err != nil {
		messagesTotal.WithLabelValues(topic, outcomeDecode).Inc()
		return &model.PayloadDecodeError{Topic: topic, Err: err}
	}

	optimal, err := s.moisture.OptimalMoisture(report)
	if err != nil {
		messagesTotal.WithLabelValues(topic, outcomePublish).Inc()
		return err
	}
	optimal = round2(optimal)

	// advisory only; the node decides whether to water
	if report.SoilMoisturePercent < optimal {
		log.Printf("decision: plant %d moisture %.2f%% below optimal %.2f%%, watering advised",
			report.PlantID, report.SoilMoisturePercent, optimal)
	} else {
		log.Printf("decision: plant %d moisture %.2f%% at or above optimal %.2f%%",
			report.PlantID, report.SoilMoisturePercent, optimal)
	}

	reply := strconv.FormatFloat(optimal, 'f', 2, 64)
	if err := s.pubs(model.Topic(model.TopicThreshold)).PublishMessage(reply); err != nil {
		messagesTotal.WithLabelValues(topic, outcomePublish).Inc()
		return err
	}
	messagesTotal.WithLabelValues(topic, outcomeOK).Inc()
	return nil
}

// handleWateringDone persists a completed watering cycle.
func (s *Service) handleWateringDone(topic string, payload []byte) error {
	var evt model.WateringEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		messagesTotal.WithLabelValues(topic, outcomeDecode).Inc()
		return &model.PayloadDecodeError{Topic: topic, Err: err}
	}

	rec := &WateringRecord{
		WaterQuantity:   evt.WaterQuantity,
		Temp:            evt.Temp,
		Humidity:        evt.Humidity,
		PH:              evt.PH,
		Nitrogen:        evt.Nitrogen,
		PlantID:         strconv.Itoa(evt.PlantID),
		InitialMoisture: evt.InitialMoisture,
		SoilMoistureNow: evt.SoilMoistureNow,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveWatering(ctx, rec); err != nil {
		persistFailures.Inc()
		messagesTotal.WithLabelValues(topic, outcomePersist).Inc()
		return err
	}
	log.Printf("decision: watering record for plant %s saved (%.1f mL over %.0fs)",
		rec.PlantID, evt.WaterQuantity, evt.DurationSeconds)
	messagesTotal.WithLabelValues(topic, outcomeOK).Inc()
	return nil
}

// handleWaterRequest answers an on-demand quantity query.
func (s *Service) handleWaterRequest(topic string, payload []byte) error {
	var req model.WaterRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		messagesTotal.WithLabelValues(topic, outcomeDecode).Inc()
		return &model.PayloadDecodeError{Topic: topic, Err: err}
	}

	qty, err := s.water.WaterQuantity(req)
	if err != nil {
		messagesTotal.WithLabelValues(topic, outcomePublish).Inc()
		return err
	}
	reply := strconv.FormatFloat(qty, 'f', -1, 64)
	if err := s.pubs(model.Topic(model.TopicWaterQuantity)).PublishMessage(reply); err != nil {
		messagesTotal.WithLabelValues(topic, outcomePublish).Inc()
		return err
	}
	log.Printf("decision: water quantity %s mL for plant %d", reply, req.PlantID)
	messagesTotal.WithLabelValues(topic, outcomeOK).Inc()
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
