package dispatch

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dshills/relay/channel"
	"github.com/dshills/relay/event"
	"github.com/dshills/relay/handler"
)

// Manager owns a handler registry and an event queue and implements the
// queue/flush/send pipeline. Managers form a tree: a non-root manager
// delegates Push, Flush, and Send to its owner until the single root is
// reached, so one queue serves the whole tree.
//
// Scheduling is cooperative and single-threaded: Send runs handlers
// inline on the calling stack and nothing here blocks or spawns
// goroutines. Embedding in a multi-threaded host requires external
// serialization of all access to a tree's root.
type Manager struct {
	owner    *Manager
	registry *Registry
	queue    []*event.Event
	queueCap int
	log      zerolog.Logger

	pushed       atomic.Uint64
	sent         atomic.Uint64
	handlerCalls atomic.Uint64
	filterVetoes atomic.Uint64
}

// Option configures a manager at construction.
type Option func(*Manager)

// WithLogger installs a structured logger. The default discards
// everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithQueueCapacity sets the initial capacity of the event queue and of
// each fresh queue swapped in by Flush.
func WithQueueCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueCap = n
		}
	}
}

// New creates a root manager.
func New(opts ...Option) *Manager {
	m := &Manager{}
	initManager(m, opts...)
	return m
}

// initManager initializes a manager in place so embedding types keep a
// stable owner pointer.
func initManager(m *Manager, opts ...Option) {
	m.owner = m
	m.registry = NewRegistry()
	m.log = zerolog.Nop()
	for _, opt := range opts {
		opt(m)
	}
	m.queue = make([]*event.Event, 0, m.queueCap)
}

// IsRoot reports whether the manager is the root of its tree.
func (m *Manager) IsRoot() bool {
	return m.owner == m
}

// Root returns the tree root the manager delegates to.
func (m *Manager) Root() *Manager {
	r := m
	for r.owner != r {
		r = r.owner
	}
	return r
}

// Add registers a handler on a channel. An empty channel name means the
// global channel "*". It fails with ErrInvalidHandler when the
// descriptor lacks a recognized kind.
func (m *Manager) Add(h *handler.Handler, channelName string) error {
	if channelName == "" {
		channelName = channel.Wildcard
	}
	if err := m.registry.Add(h, channelName); err != nil {
		return err
	}
	m.log.Debug().Str("channel", channelName).Str("handler", h.ID()).
		Stringer("kind", h.Kind()).Msg("handler added")
	return nil
}

// Remove unregisters a handler. With an empty channel name the handler
// is removed from every channel. Remove is idempotent.
func (m *Manager) Remove(h *handler.Handler, channelName string) {
	m.registry.Remove(h, channelName)
	m.log.Debug().Str("channel", channelName).Str("handler", h.ID()).
		Msg("handler removed")
}

// HandlersFor resolves a channel string against this manager's own
// registry. Resolution is never delegated up the tree.
func (m *Manager) HandlersFor(s string) []*handler.Handler {
	return m.registry.HandlersFor(s)
}

// Contains reports whether the handler is registered with this manager.
func (m *Manager) Contains(h *handler.Handler) bool {
	return m.registry.Contains(h)
}

// Handlers returns this manager's registered handlers in insertion order.
func (m *Manager) Handlers() []*handler.Handler {
	return m.registry.Members()
}

// QueueLen returns the number of events pending in this manager's own
// queue. Only a root's queue ever holds events.
func (m *Manager) QueueLen() int {
	return len(m.queue)
}

// Push stamps the event's routing envelope and appends it to the root's
// queue. It never dispatches; a later Flush drains the queue. An empty
// target means untargeted.
func (m *Manager) Push(e *event.Event, channelName, target string) {
	if m.owner != m {
		m.owner.Push(e, channelName, target)
		return
	}
	e.SetRouting(channelName, target)
	m.queue = append(m.queue, e)
	m.pushed.Add(1)
	m.log.Trace().Str("event", e.Name).Str("channel", channelName).
		Str("target", target).Int("queued", len(m.queue)).Msg("push")
}

// Flush drains the root's queue. The current queue is swapped for a
// fresh one first, so events pushed by handlers during the flush wait
// for the next flush. The swapped-out batch is processed from the tail:
// the last event pushed is sent first. A handler panic aborts the
// remainder of the batch.
func (m *Manager) Flush() {
	if m.owner != m {
		m.owner.Flush()
		return
	}
	q := m.queue
	m.queue = make([]*event.Event, 0, m.queueCap)
	for i := len(q) - 1; i >= 0; i-- {
		e := q[i]
		m.Send(e, e.Channel(), e.Target())
	}
}

// Send dispatches the event immediately, without queuing. With a
// non-empty target the resolution key becomes "target:channel". Handlers
// run in resolution order (globals first, filters before listeners); a
// filter returning true halts the remaining handlers of this send.
// Handler panics propagate to the caller.
func (m *Manager) Send(e *event.Event, channelName, target string) {
	if m.owner != m {
		m.owner.Send(e, channelName, target)
		return
	}
	e.SetRouting(channelName, target)

	key := channelName
	if target != "" {
		key = channel.Join(target, channelName)
	}

	m.sent.Add(1)
	m.log.Trace().Str("event", e.Name).Str("key", key).Msg("send")

	for _, h := range m.registry.HandlersFor(key) {
		m.handlerCalls.Add(1)
		verdict := h.Call(e)
		if verdict && h.Kind() == handler.Filter {
			m.filterVetoes.Add(1)
			m.log.Trace().Str("event", e.Name).Str("handler", h.ID()).
				Msg("filtered")
			break
		}
	}
}

// Attach registers the component into this manager's tree. It is the
// composition operator: the component's handlers join the tree root's
// registry and its queue operations delegate here afterwards.
func (m *Manager) Attach(c *Component) error {
	return c.Register(m.owner)
}

// Detach removes the component from the tree, reverting it to its own
// root.
func (m *Manager) Detach(c *Component) {
	c.Unregister()
}

// Stats is a snapshot of manager counters.
type Stats struct {
	// Pushed is the number of events enqueued on this manager.
	Pushed uint64

	// Sent is the number of Send dispatches performed.
	Sent uint64

	// HandlerCalls is the number of handler invocations.
	HandlerCalls uint64

	// FilterVetoes is the number of sends halted by a filter.
	FilterVetoes uint64

	// Queued is the current queue depth.
	Queued int

	// Handlers is the number of registered handlers.
	Handlers int
}

// Stats returns a snapshot of this manager's counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Pushed:       m.pushed.Load(),
		Sent:         m.sent.Load(),
		HandlerCalls: m.handlerCalls.Load(),
		FilterVetoes: m.filterVetoes.Load(),
		Queued:       len(m.queue),
		Handlers:     m.registry.Len(),
	}
}
