package dispatch

import (
	"context"
	"time"
)

// Stage is a step of the simulated send sequence.
type Stage string

const (
	StageSent      Stage = "sent"
	StageDelivered Stage = "delivered"
	StageOpened    Stage = "opened"
)

// Event describes one dispatch stage transition.
type Event struct {
	DispatchID string    `json:"dispatchId"`
	Stage      Stage     `json:"stage"`
	Kind       string    `json:"kind"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	PersonName string    `json:"personName"`
	At         time.Time `json:"at"`
}

// RoutingKey returns the topic routing key for the event's stage.
func (e Event) RoutingKey() string {
	return "dispatch." + string(e.Stage)
}

// Publisher receives dispatch events. Implementations must be safe for
// concurrent use; callers treat publish failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// StageReader looks up the last recorded stage of a dispatch.
type StageReader interface {
	Stage(ctx context.Context, dispatchID string) (Stage, bool, error)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
