package session

import (
	"log/slog"

	"gamehub/internal/lobby/protocol"
)

// Broadcaster pushes server-initiated events to player connections. Delivery
// is best-effort: a gone connection or a failed write is logged and skipped,
// never retried or queued.
type Broadcaster struct {
	players *Registry
}

func NewBroadcaster(players *Registry) *Broadcaster {
	return &Broadcaster{players: players}
}

// SendTo delivers evt to username's live connection, if there is one.
func (b *Broadcaster) SendTo(username string, evt *protocol.Event) {
	c, ok := b.players.ConnOf(username)
	if !ok {
		return
	}
	if err := c.SendEvent(evt); err != nil {
		slog.Debug("event send failed", "user", username, "event", evt.Cmd, "err", err)
	}
}

// Broadcast applies SendTo to each username; a failed send does not abort
// the remaining ones.
func (b *Broadcaster) Broadcast(usernames []string, evt *protocol.Event) {
	for _, name := range usernames {
		b.SendTo(name, evt)
	}
}
