// Package broker publishes now-playing changes to an MQTT state topic, for
// home automation dashboards and similar consumers.
package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"skidoodle/now-playing/internal/nowplaying"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
	disconnectWait = 250 // milliseconds
)

// Config describes the broker connection.
type Config struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// Publisher sends each status as a retained message, so new subscribers
// immediately see the current state.
type Publisher struct {
	client mqtt.Client
	topic  string
	log    *logrus.Entry
}

// Connect dials the broker and returns a ready Publisher.
func Connect(cfg Config, logger *logrus.Logger) (*Publisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "now-playing-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	p := newPublisher(client, cfg.Topic, logger)
	p.log.WithField("broker", cfg.Broker).Info("connected to mqtt broker")
	return p, nil
}

func newPublisher(client mqtt.Client, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		log:    logger.WithFields(logrus.Fields{"component": "mqtt", "topic": topic}),
	}
}

// Publish sends status. Failures are logged only.
func (p *Publisher) Publish(status nowplaying.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		p.log.WithError(err).Error("failed to encode status")
		return
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.log.Warn("mqtt publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		p.log.WithError(err).Warn("mqtt publish failed")
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(disconnectWait)
}
