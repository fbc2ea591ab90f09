package dispatch

import (
	"testing"

	"github.com/dshills/relay/event"
	"github.com/dshills/relay/handler"
)

// recorder collects the events a listener sees.
type recorder struct {
	events []*event.Event
}

func (r *recorder) listener(channels ...string) *handler.Handler {
	return handler.NewListener(func(e *event.Event) bool {
		r.events = append(r.events, e)
		return false
	}, channels...)
}

func TestManager_Push_OnlyEnqueues(t *testing.T) {
	m := New()
	rec := &recorder{}
	if err := m.Add(rec.listener(), "greet"); err != nil {
		t.Fatal(err)
	}

	e := event.New("Greet")
	m.Push(e, "greet", "app")

	if len(rec.events) != 0 {
		t.Error("push must not dispatch")
	}
	if m.QueueLen() != 1 {
		t.Errorf("expected 1 queued event, got %d", m.QueueLen())
	}
	if e.Channel() != "greet" || e.Target() != "app" {
		t.Errorf("push must stamp routing, got channel=%q target=%q",
			e.Channel(), e.Target())
	}
}

func TestManager_Flush_DrainsFromTail(t *testing.T) {
	m := New()
	rec := &recorder{}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	e1 := event.New("E1")
	e2 := event.New("E2")
	e3 := event.New("E3")
	m.Push(e1, "c", "")
	m.Push(e2, "c", "")
	m.Push(e3, "c", "")

	m.Flush()

	// The batch drains from the append end: last pushed, first sent.
	if len(rec.events) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(rec.events))
	}
	if rec.events[0] != e3 || rec.events[1] != e2 || rec.events[2] != e1 {
		t.Errorf("expected order E3,E2,E1; got %s,%s,%s",
			rec.events[0].Name, rec.events[1].Name, rec.events[2].Name)
	}
	if m.QueueLen() != 0 {
		t.Errorf("queue not drained, %d left", m.QueueLen())
	}
}

func TestManager_Flush_EmptyIsNoop(t *testing.T) {
	m := New()
	rec := &recorder{}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	m.Push(event.New("E"), "c", "")
	m.Flush()
	m.Flush()

	if len(rec.events) != 1 {
		t.Errorf("second flush must deliver nothing, got %d deliveries", len(rec.events))
	}
}

func TestManager_Flush_PushDuringFlushWaits(t *testing.T) {
	m := New()
	rec := &recorder{}

	reenter := handler.NewListener(func(e *event.Event) bool {
		if e.Name == "First" {
			m.Push(event.New("Second"), "c", "")
		}
		return false
	})
	if err := m.Add(reenter, "c"); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	m.Push(event.New("First"), "c", "")
	m.Flush()

	if len(rec.events) != 1 {
		t.Fatalf("event pushed mid-flush must wait for the next flush, got %d", len(rec.events))
	}

	m.Flush()
	if len(rec.events) != 2 || rec.events[1].Name != "Second" {
		t.Error("second flush should deliver the deferred event")
	}
}

func TestManager_Send_FilterShortCircuit(t *testing.T) {
	m := New()
	rec := &recorder{}

	veto := handler.NewFilter(func(e *event.Event) bool { return true })
	if err := m.Add(veto, "c"); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	m.Send(event.New("E"), "c", "")

	if len(rec.events) != 0 {
		t.Error("a true-returning filter must halt the remaining handlers")
	}
	if got := m.Stats().FilterVetoes; got != 1 {
		t.Errorf("expected 1 filter veto, got %d", got)
	}
}

func TestManager_Send_FilterPassThrough(t *testing.T) {
	m := New()
	rec := &recorder{}

	pass := handler.NewFilter(func(e *event.Event) bool { return false })
	if err := m.Add(pass, "c"); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	m.Send(event.New("E"), "c", "")

	if len(rec.events) != 1 {
		t.Error("a false-returning filter must not halt dispatch")
	}
}

func TestManager_Send_ListenerReturnIgnored(t *testing.T) {
	m := New()
	rec := &recorder{}

	noisy := handler.NewListener(func(e *event.Event) bool { return true })
	if err := m.Add(noisy, "c"); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	m.Send(event.New("E"), "c", "")

	if len(rec.events) != 1 {
		t.Error("a listener's return value must not halt dispatch")
	}
}

func TestManager_Send_TargetScopesResolution(t *testing.T) {
	m := New()
	scoped := &recorder{}
	bare := &recorder{}

	if err := m.Add(scoped.listener(), "t:c"); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(bare.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	e := event.New("E")
	m.Send(e, "c", "t")

	if len(scoped.events) != 1 {
		t.Error("targeted send must reach the target-scoped handler")
	}
	if len(bare.events) != 0 {
		t.Error("targeted send must not reach the bare-channel handler")
	}
	if e.Target() != "t" {
		t.Errorf("send must stamp the target, got %q", e.Target())
	}
}

func TestManager_Send_NoMatchIsNormal(t *testing.T) {
	m := New()
	// No handlers at all; must not panic or error.
	m.Send(event.New("E"), "nowhere", "nobody")

	if got := m.Stats().Sent; got != 1 {
		t.Errorf("expected 1 send, got %d", got)
	}
}

func TestManager_AddRemove(t *testing.T) {
	m := New()
	rec := &recorder{}
	h := rec.listener()

	if err := m.Add(h, ""); err != nil {
		t.Fatal(err)
	}
	// Empty channel means global: delivered on every resolution.
	m.Send(event.New("E"), "anything", "")
	if len(rec.events) != 1 {
		t.Error("global handler should see every channel")
	}

	m.Remove(h, "")
	m.Send(event.New("E"), "anything", "")
	if len(rec.events) != 1 {
		t.Error("removed handler must not be invoked")
	}
	if m.Contains(h) {
		t.Error("manager still contains removed handler")
	}
}

func TestManager_Add_Invalid(t *testing.T) {
	m := New()
	if err := m.Add(&handler.Handler{}, "c"); err == nil {
		t.Fatal("expected error for unrecognized handler kind")
	}
}

func TestManager_Stats(t *testing.T) {
	m := New()
	rec := &recorder{}
	if err := m.Add(rec.listener(), "c"); err != nil {
		t.Fatal(err)
	}

	m.Push(event.New("E1"), "c", "")
	m.Push(event.New("E2"), "c", "")

	s := m.Stats()
	if s.Pushed != 2 || s.Queued != 2 || s.Handlers != 1 {
		t.Errorf("unexpected stats before flush: %+v", s)
	}

	m.Flush()
	s = m.Stats()
	if s.Sent != 2 || s.HandlerCalls != 2 || s.Queued != 0 {
		t.Errorf("unexpected stats after flush: %+v", s)
	}
}

func TestManager_EndToEnd(t *testing.T) {
	m := New()

	var got []any
	greet := handler.NewListener(func(e *event.Event) bool {
		v, err := e.Arg(0)
		if err != nil {
			t.Errorf("payload access: %v", err)
		}
		got = append(got, v)
		return false
	}, "greet")
	if err := m.Add(greet, "greet"); err != nil {
		t.Fatal(err)
	}

	m.Push(event.New("Hi", event.WithArgs("world")), "greet", "")
	m.Flush()

	if len(got) != 1 || got[0] != "world" {
		t.Errorf("expected handler invoked with payload, got %v", got)
	}

	m.Flush() // no pending events; must be a no-op
	if len(got) != 1 {
		t.Error("empty flush must not re-deliver")
	}
}
