package notify

import (
	"io"
	"log/slog"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster(discard())
	first, second := NewInbox(0), NewInbox(0)
	b.Attach(first)
	b.Attach(second)
	b.Attach(first) // duplicate is ignored

	if b.Len() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Len())
	}

	b.Publish(Notification{Kind: KindDay, Day: 2, Message: "Day 2"})
	if first.Len() != 1 || second.Len() != 1 {
		t.Fatalf("each inbox should get one notification: %d, %d", first.Len(), second.Len())
	}
	if first.All()[0].Time.IsZero() {
		t.Error("publish should stamp the time")
	}

	b.Detach(first)
	b.Publish(Notification{Kind: KindDay, Day: 3})
	if first.Len() != 1 {
		t.Errorf("detached inbox should not receive, got %d", first.Len())
	}
	if second.Len() != 2 {
		t.Errorf("remaining inbox should receive, got %d", second.Len())
	}
}

type recorder struct{ kinds []Kind }

func (r *recorder) Notify(n Notification) { r.kinds = append(r.kinds, n.Kind) }

func TestDeliveryOrder(t *testing.T) {
	b := NewBroadcaster(discard())
	rec := &recorder{}
	b.Attach(NewInbox(0))
	b.Attach(rec)
	b.Publish(Notification{Kind: KindEvent})
	b.Publish(Notification{Kind: KindRegime})
	if len(rec.kinds) != 2 || rec.kinds[0] != KindEvent || rec.kinds[1] != KindRegime {
		t.Errorf("unexpected deliveries %v", rec.kinds)
	}
}

func TestInboxWindow(t *testing.T) {
	in := NewInbox(3)
	for day := 1; day <= 7; day++ {
		in.Notify(Notification{Kind: KindDay, Day: day})
	}
	recent := in.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected window of 3, got %d", len(recent))
	}
	if recent[0].Day != 5 || recent[2].Day != 7 {
		t.Errorf("expected days 5..7, got %d..%d", recent[0].Day, recent[2].Day)
	}
	if in.Len() != 7 {
		t.Errorf("storage should keep all 7, got %d", in.Len())
	}
	in.Clear()
	if in.Len() != 0 || len(in.Recent()) != 0 {
		t.Error("clear should empty the inbox")
	}
}
