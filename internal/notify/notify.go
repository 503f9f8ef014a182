// Package notify publishes claim payment events to interested parties after a
// payment submission has been committed.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// PaymentEvent describes a committed payment submission.
type PaymentEvent struct {
	ClaimID     string    `json:"claim_id"`
	ClaimNumber string    `json:"claim_number"`
	Method      string    `json:"method"`
	Amount      float64   `json:"amount"`
	FileName    string    `json:"file_name"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Notifier receives payment events.
type Notifier interface {
	PaymentSubmitted(ctx context.Context, event PaymentEvent) error
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) PaymentSubmitted(context.Context, PaymentEvent) error { return nil }

// Publisher is the part of mqtt.Client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// MQTTNotifier publishes events as JSON at QoS 1.
type MQTTNotifier struct {
	client  Publisher
	topic   string
	timeout time.Duration
}

// NewMQTTNotifier creates a notifier publishing to topic.
func NewMQTTNotifier(client Publisher, topic string, timeout time.Duration) *MQTTNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTNotifier{client: client, topic: topic, timeout: timeout}
}

// PaymentSubmitted publishes the event and waits for the broker to acknowledge it.
func (n *MQTTNotifier) PaymentSubmitted(ctx context.Context, event PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.timeout):
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}

	log.WithFields(log.Fields{
		"topic":    n.topic,
		"claim_id": event.ClaimID,
	}).Debug("Published payment event")
	return nil
}

// ConnectMQTT connects a paho client to broker.
func ConnectMQTT(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return client, nil
}
