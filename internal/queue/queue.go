// Package queue publishes campaign lifecycle events so downstream consumers
// (notification fan-out, analytics) observe every mutation that succeeded
// against the backend.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Event kinds emitted on successful mutations.
const (
	EventCampaignCreated = "campaign.created"
	EventCampaignStarted = "campaign.started"
	EventCampaignPaused  = "campaign.paused"
	EventCampaignDeleted = "campaign.deleted"
	EventGoalCreated     = "goal.created"
)

// Event is one lifecycle occurrence.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	CampaignID string    `json:"campaign_id,omitempty"`
	GoalID     string    `json:"goal_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind, source, campaignID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Source:     source,
		CampaignID: campaignID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

const lifecycleQueue = "campaign_lifecycle"

// AMQPPublisher publishes events to a durable RabbitMQ queue.
type AMQPPublisher struct {
	ch *amqp.Channel
}

// NewAMQPPublisher opens a channel on the connection and declares the
// lifecycle queue.
func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		lifecycleQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) Publish(_ context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.ch.Publish(
		"",
		lifecycleQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   e.ID,
			Timestamp:   e.OccurredAt,
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

// MemoryPublisher records events in memory, for tests and local runs
// without a broker.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
