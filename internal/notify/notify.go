// Package notify provides the one-to-many broadcast of market happenings.
// Delivery is synchronous: Publish returns after every subscriber has seen
// the notification. Subscribers are informational and cannot affect the
// market's control flow.
package notify

import (
	"log/slog"
	"time"
)

// Kind tags what a notification is about.
type Kind string

const (
	KindEvent           Kind = "event"
	KindRumor           Kind = "rumor"
	KindRumorDiscovered Kind = "rumor_discovered"
	KindRegime          Kind = "regime"
	KindDay             Kind = "day"
)

// Notification is one broadcast message.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Day     int       `json:"day"`
	Message string    `json:"message"`
	RefID   string    `json:"ref_id,omitempty"` // event or rumor id
	Regime  string    `json:"regime,omitempty"`
	Time    time.Time `json:"time"`
}

// Subscriber receives notifications. Implementations must be comparable
// (pointer types) so they can be detached.
type Subscriber interface {
	Notify(n Notification)
}

// Broadcaster keeps an ordered subscriber list and fans notifications out to it.
type Broadcaster struct {
	subs   []Subscriber
	logger *slog.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{logger: logger.With(slog.String("component", "notify"))}
}

// Attach adds s unless it is already subscribed.
func (b *Broadcaster) Attach(s Subscriber) {
	for _, existing := range b.subs {
		if existing == s {
			return
		}
	}
	b.subs = append(b.subs, s)
}

// Detach removes s if present.
func (b *Broadcaster) Detach(s Subscriber) {
	for i, existing := range b.subs {
		if existing == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (b *Broadcaster) Len() int { return len(b.subs) }

// Publish delivers n to every subscriber in attach order.
func (b *Broadcaster) Publish(n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now().UTC()
	}
	b.logger.Debug("publish",
		slog.String("kind", string(n.Kind)),
		slog.Int("day", n.Day),
		slog.Int("subscribers", len(b.subs)),
	)
	for _, s := range b.subs {
		s.Notify(n)
	}
}
