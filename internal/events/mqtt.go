package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/models"
)

const dateLayout = "2006-01-02"

// FuelRecordEvent is published by the fuel-record service for every saved
// refuel.
type FuelRecordEvent struct {
	FuelRecordID string  `json:"fuel_record_id"`
	VehicleID    string  `json:"vehicle_id"`
	Date         string  `json:"date"` // YYYY-MM-DD
	Liters       float64 `json:"liters"`
	Country      string  `json:"country,omitempty"`
	FullTank     bool    `json:"full_tank"`
}

// FullTankHandler records a full-tank reference point.
type FullTankHandler interface {
	HandleFullTankRefuel(ctx context.Context, vehicleID, fuelRecordID string, date time.Time) (*models.FuelInventory, error)
}

// EventObserver receives the result of each consumed event.
type EventObserver interface {
	FuelEventConsumed(result string)
}

// Event results passed to the EventObserver.
const (
	ResultRecorded = "recorded"
	ResultIgnored  = "ignored"
	ResultInvalid  = "invalid"
	ResultFailed   = "failed"
)

var ErrInvalidEvent = errors.New("invalid fuel record event")

// Options configures the MQTT subscriber.
type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	QoS       byte
}

// Subscriber consumes fuel record events and turns full-tank refuels into
// fuel inventory points.
type Subscriber struct {
	opts     Options
	handler  FullTankHandler
	observer EventObserver
	client   mqtt.Client
	timeout  time.Duration
}

// NewSubscriber creates a subscriber. observer may be nil.
func NewSubscriber(opts Options, handler FullTankHandler, observer EventObserver) *Subscriber {
	if opts.QoS > 2 {
		opts.QoS = 1
	}
	return &Subscriber{
		opts:     opts,
		handler:  handler,
		observer: observer,
		timeout:  30 * time.Second,
	}
}

// Start connects to the broker and subscribes. Subscriptions are restored
// on every reconnect.
func (s *Subscriber) Start(ctx context.Context) error {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(s.opts.BrokerURL).
		SetClientID(s.opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(func(c mqtt.Client) {
			token := c.Subscribe(s.opts.Topic, s.opts.QoS, s.onMessage)
			if token.Wait() && token.Error() != nil {
				log.WithError(token.Error()).WithField("topic", s.opts.Topic).Error("Failed to subscribe to fuel record events")
				return
			}
			log.WithField("topic", s.opts.Topic).Info("Subscribed to fuel record events")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	s.client = mqtt.NewClient(clientOpts)
	token := s.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect to MQTT broker %s: %w", s.opts.BrokerURL, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Stop unsubscribes and disconnects.
func (s *Subscriber) Stop() {
	if s.client == nil {
		return
	}
	if s.client.IsConnected() {
		s.client.Unsubscribe(s.opts.Topic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	log.Info("MQTT subscriber stopped")
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.HandlePayload(ctx, msg.Payload()); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Error("Failed to handle fuel record event")
	}
}

// HandlePayload processes one event payload. Events without full_tank are
// ignored.
func (s *Subscriber) HandlePayload(ctx context.Context, payload []byte) error {
	var event FuelRecordEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.observe(ResultInvalid)
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if !event.FullTank {
		s.observe(ResultIgnored)
		return nil
	}
	if event.VehicleID == "" || event.FuelRecordID == "" {
		s.observe(ResultInvalid)
		return fmt.Errorf("%w: vehicle_id and fuel_record_id are required", ErrInvalidEvent)
	}
	date, err := time.Parse(dateLayout, event.Date)
	if err != nil {
		s.observe(ResultInvalid)
		return fmt.Errorf("%w: date %q", ErrInvalidEvent, event.Date)
	}

	inventory, err := s.handler.HandleFullTankRefuel(ctx, event.VehicleID, event.FuelRecordID, date)
	if err != nil {
		s.observe(ResultFailed)
		return fmt.Errorf("full tank refuel %s: %w", event.FuelRecordID, err)
	}

	s.observe(ResultRecorded)
	log.WithFields(log.Fields{
		"vehicle_id":     event.VehicleID,
		"fuel_record_id": event.FuelRecordID,
		"fuel_amount":    inventory.FuelAmount,
	}).Info("Full tank reference point recorded")
	return nil
}

func (s *Subscriber) observe(result string) {
	if s.observer != nil {
		s.observer.FuelEventConsumed(result)
	}
}
