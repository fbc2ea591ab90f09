package handler

import (
	"github.com/google/uuid"

	"github.com/dshills/relay/event"
)

// Kind classifies a handler. The zero value is not a valid kind; a
// descriptor must be tagged Listener or Filter before a manager will
// accept it.
type Kind uint8

const (
	kindUnset Kind = iota

	// Listener handlers observe events and never affect dispatch
	// continuation.
	Listener

	// Filter handlers run before listeners on the same channel and halt
	// the remainder of a send by returning true.
	Filter
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Listener:
		return "listener"
	case Filter:
		return "filter"
	default:
		return "unset"
	}
}

// Recognized reports whether the kind is one a manager accepts.
func (k Kind) Recognized() bool {
	return k == Listener || k == Filter
}

// Func is the uniform handler contract. Every handler receives the event
// and destructures the payload itself via Arg/Kwarg/Value. The return
// value is captured by the dispatcher but only consulted for filters:
// a filter returning true halts the remaining handlers of that send.
type Func func(e *event.Event) bool

// Handler is the descriptor for one subscribable unit of behavior: its
// kind, the channel names it listens on, and the callable itself.
// Descriptors are immutable after construction and identified by pointer.
type Handler struct {
	id       string
	kind     Kind
	channels []string
	fn       Func
}

// Option configures a descriptor at construction.
type Option func(*Handler)

// WithKind sets the handler kind. The default is Listener.
func WithKind(k Kind) Option {
	return func(h *Handler) {
		h.kind = k
	}
}

// WithChannels sets the channel names the handler subscribes to. No
// channels means the handler is global.
func WithChannels(names ...string) Option {
	return func(h *Handler) {
		h.channels = append([]string(nil), names...)
	}
}

// New creates a handler descriptor for fn. Tagging is pure metadata
// attachment; it does not change how fn behaves when called directly.
func New(fn Func, opts ...Option) *Handler {
	h := &Handler{
		id:   uuid.New().String(),
		kind: Listener,
		fn:   fn,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewListener creates a Listener descriptor subscribed to the given
// channels.
func NewListener(fn Func, channels ...string) *Handler {
	return New(fn, WithChannels(channels...))
}

// NewFilter creates a Filter descriptor subscribed to the given channels.
func NewFilter(fn Func, channels ...string) *Handler {
	return New(fn, WithKind(Filter), WithChannels(channels...))
}

// ID returns the descriptor's unique identifier.
func (h *Handler) ID() string {
	return h.id
}

// Kind returns the handler kind.
func (h *Handler) Kind() Kind {
	return h.kind
}

// Channels returns a copy of the subscribed channel names.
func (h *Handler) Channels() []string {
	if len(h.channels) == 0 {
		return nil
	}
	out := make([]string, len(h.channels))
	copy(out, h.channels)
	return out
}

// Valid reports whether the descriptor can be registered: it must carry a
// recognized kind and a callable.
func (h *Handler) Valid() bool {
	return h != nil && h.kind.Recognized() && h.fn != nil
}

// Call invokes the underlying callable. The result is the filter verdict
// when the handler is a Filter; for listeners it is ignored by dispatch.
func (h *Handler) Call(e *event.Event) bool {
	return h.fn(e)
}
