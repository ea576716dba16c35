package notify

// DefaultWindow is how many notifications Recent shows by default.
const DefaultWindow = 5

// Inbox stores every notification a player receives. Storage is unbounded;
// Recent exposes only the display window.
type Inbox struct {
	items  []Notification
	window int
}

// NewInbox creates an inbox with the given display window. A non-positive
// window falls back to DefaultWindow.
func NewInbox(window int) *Inbox {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Inbox{window: window}
}

// Notify implements Subscriber.
func (in *Inbox) Notify(n Notification) {
	in.items = append(in.items, n)
}

// Recent returns up to the display window's worth of latest notifications,
// oldest first.
func (in *Inbox) Recent() []Notification {
	start := len(in.items) - in.window
	if start < 0 {
		start = 0
	}
	out := make([]Notification, len(in.items)-start)
	copy(out, in.items[start:])
	return out
}

// All returns every stored notification.
func (in *Inbox) All() []Notification {
	out := make([]Notification, len(in.items))
	copy(out, in.items)
	return out
}

// Len returns the number of stored notifications.
func (in *Inbox) Len() int { return len(in.items) }

// Clear drops every stored notification.
func (in *Inbox) Clear() { in.items = nil }
