package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PresenceMirror publishes online/offline transitions outside the process.
type PresenceMirror interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

type presenceChange struct {
	userID string
	online bool
}

// Presence owns connection lifecycle on top of the registry. Whenever the set
// of online users changes, the full roster is broadcast to every connection;
// clients render the roster as-is instead of applying deltas.
type Presence struct {
	registry *Registry
	fanout   *Fanout
	logger   *slog.Logger

	mirror        PresenceMirror
	mirrorTimeout time.Duration
	changes       chan presenceChange
	closeOnce     sync.Once
	done          chan struct{}
}

type PresenceOption func(*Presence)

// WithMirror forwards transitions to m from a single background goroutine,
// so mirror latency never holds up connection handling and transitions of a
// user are applied in order.
func WithMirror(m PresenceMirror, timeout time.Duration) PresenceOption {
	return func(p *Presence) {
		p.mirror = m
		if timeout > 0 {
			p.mirrorTimeout = timeout
		}
	}
}

func NewPresence(registry *Registry, fanout *Fanout, logger *slog.Logger, opts ...PresenceOption) *Presence {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presence{
		registry:      registry,
		fanout:        fanout,
		logger:        logger,
		mirrorTimeout: 3 * time.Second,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.mirror != nil {
		p.changes = make(chan presenceChange, 1024)
		go p.runMirror()
	} else {
		close(p.done)
	}
	return p
}

// Connect registers a connection. A user's first connection triggers a roster
// broadcast; an extra device only receives the current roster itself.
func (p *Presence) Connect(userID string, conn Conn) error {
	becameOnline, err := p.registry.Register(userID, conn)
	if err != nil {
		return err
	}

	if !becameOnline {
		if err := p.fanout.SendTo(conn, EventOnlineUsers, p.registry.OnlineUserIDs()); err != nil {
			p.logger.Debug("Failed to send roster", "clientID", conn.ID(), "userID", userID, "error", err)
		}
		return nil
	}

	p.logger.Info("User online", "userID", userID, "clientID", conn.ID())
	p.enqueue(presenceChange{userID: userID, online: true})
	p.broadcastRoster()
	return nil
}

// Disconnect unregisters a connection. The roster is broadcast only when it
// was the user's last connection.
func (p *Presence) Disconnect(userID, connID string) {
	if !p.registry.Unregister(userID, connID) {
		return
	}

	p.logger.Info("User offline", "userID", userID, "clientID", connID)
	p.enqueue(presenceChange{userID: userID, online: false})
	p.broadcastRoster()
}

// OnlineUserIDs returns the current roster.
func (p *Presence) OnlineUserIDs() []string {
	return p.registry.OnlineUserIDs()
}

// Stats returns how many users and connections are live.
func (p *Presence) Stats() (users, conns int) {
	return p.registry.Stats()
}

// Close stops the mirror goroutine after pending transitions are flushed.
func (p *Presence) Close() {
	p.closeOnce.Do(func() {
		if p.changes != nil {
			close(p.changes)
		}
	})
	<-p.done
}

func (p *Presence) broadcastRoster() {
	p.fanout.Broadcast(EventOnlineUsers, p.registry.OnlineUserIDs())
}

func (p *Presence) enqueue(change presenceChange) {
	if p.changes == nil {
		return
	}
	select {
	case p.changes <- change:
	default:
		p.logger.Warn("Presence mirror queue full, dropping transition", "userID", change.userID, "online", change.online)
	}
}

func (p *Presence) runMirror() {
	defer close(p.done)
	for change := range p.changes {
		ctx, cancel := context.WithTimeout(context.Background(), p.mirrorTimeout)
		var err error
		if change.online {
			err = p.mirror.SetUserOnline(ctx, change.userID)
		} else {
			err = p.mirror.SetUserOffline(ctx, change.userID)
		}
		cancel()
		if err != nil {
			p.logger.Error("Failed to mirror presence", "userID", change.userID, "online", change.online, "error", err)
		}
	}
}
