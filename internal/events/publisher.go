package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes fuel record events.
type Publisher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewPublisher connects a publishing client to the broker in opts.
func NewPublisher(ctx context.Context, opts Options) (*Publisher, error) {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID + "-publisher").
		SetAutoReconnect(true)

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.BrokerURL, err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Publisher{client: client, topic: opts.Topic, qos: 1}, nil
}

// PublishFuelRecord publishes event and waits for the broker to accept it.
func (p *Publisher) PublishFuelRecord(ctx context.Context, event FuelRecordEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fuel record event: %w", err)
	}
	token := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects the client.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// NewFuelRecordEvent builds the event for a stored fuel record.
func NewFuelRecordEvent(recordID, vehicleID string, date time.Time, liters float64, country string, fullTank bool) FuelRecordEvent {
	return FuelRecordEvent{
		FuelRecordID: recordID,
		VehicleID:    vehicleID,
		Date:         date.UTC().Format(dateLayout),
		Liters:       liters,
		Country:      country,
		FullTank:     fullTank,
	}
}
