package websocket

import (
	"errors"
	"fmt"
	"log/slog"
)

var ErrPushPanic = errors.New("push panicked")

// Delivery is the outcome of one push to one connection.
type Delivery struct {
	UserID string
	ConnID string
	Err    error
}

// Fanout pushes events to the live connections of a set of users.
//
// Delivery is best-effort and at-most-once: offline users are skipped, a
// failed push is recorded and logged but never stops the remaining pushes,
// and nothing is retried. Successive calls reach a given connection in call
// order because each push lands in that connection's ordered send queue.
type Fanout struct {
	registry *Registry
	logger   *slog.Logger
}

func NewFanout(registry *Registry, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{registry: registry, logger: logger}
}

// Emit resolves every target user to the connections live at call time and
// pushes the event to each of them.
func (f *Fanout) Emit(userIDs []string, name EventName, payload any) []Delivery {
	return f.EmitEvent(userIDs, NewEvent(name, payload))
}

// EmitEvent is Emit for an envelope built by the caller.
func (f *Fanout) EmitEvent(userIDs []string, event *Event) []Delivery {
	name := event.Event
	data, err := event.Encode()
	if err != nil {
		f.logger.Error("Failed to encode event", "event", name, "error", err)
		return nil
	}

	seen := make(map[string]struct{}, len(userIDs))
	deliveries := make([]Delivery, 0, len(userIDs))
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		for _, conn := range f.registry.ConnectionsFor(userID) {
			deliveries = append(deliveries, f.deliver(conn, name, data))
		}
	}

	f.logOutcome(name, len(seen), deliveries)
	return deliveries
}

// Broadcast pushes the event to every live connection.
func (f *Fanout) Broadcast(name EventName, payload any) []Delivery {
	data, err := NewEvent(name, payload).Encode()
	if err != nil {
		f.logger.Error("Failed to encode event", "event", name, "error", err)
		return nil
	}

	conns := f.registry.AllConnections()
	deliveries := make([]Delivery, 0, len(conns))
	for _, conn := range conns {
		deliveries = append(deliveries, f.deliver(conn, name, data))
	}

	f.logOutcome(name, -1, deliveries)
	return deliveries
}

// SendTo pushes the event to a single connection.
func (f *Fanout) SendTo(conn Conn, name EventName, payload any) error {
	data, err := NewEvent(name, payload).Encode()
	if err != nil {
		return err
	}
	return f.deliver(conn, name, data).Err
}

func (f *Fanout) deliver(conn Conn, name EventName, data []byte) Delivery {
	d := Delivery{UserID: conn.UserID(), ConnID: conn.ID()}
	d.Err = push(conn, data)
	if d.Err != nil {
		f.logger.Debug("Push failed", "event", name, "clientID", d.ConnID, "userID", d.UserID, "error", d.Err)
	}
	return d
}

// push isolates a single connection; a panicking transport must not take the
// rest of the fan-out down with it.
func push(conn Conn, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPushPanic, r)
		}
	}()
	return conn.Send(data)
}

func (f *Fanout) logOutcome(name EventName, targets int, deliveries []Delivery) {
	failed := 0
	for _, d := range deliveries {
		if d.Err != nil {
			failed++
		}
	}
	f.logger.Debug("Event fanned out",
		"event", name,
		"targets", targets,
		"connections", len(deliveries),
		"failed", failed,
	)
}
