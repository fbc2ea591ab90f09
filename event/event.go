package event

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Routing is the delivery envelope of an event. It is distinct from the
// payload and is assigned exactly once by the root manager when the event
// is pushed or sent.
type Routing struct {
	// Channel is the channel the event was published on.
	Channel string

	// Target scopes delivery to one component's handlers. Empty means
	// untargeted.
	Target string
}

// Event is a named value carrying a positional and keyword payload plus a
// routing envelope. The payload is immutable by convention; only the
// routing envelope is written after construction, and only once.
type Event struct {
	// ID is a unique trace identifier. It takes no part in equality.
	ID string

	// Name identifies the kind of event (e.g. "Registered").
	Name string

	// Args is the positional payload.
	Args []any

	// Kwargs is the keyword payload.
	Kwargs map[string]any

	// Source is an opaque origin marker preserved for collaborators.
	// The dispatch core never reads it.
	Source any

	// Ignore is preserved for collaborators and not interpreted here.
	Ignore bool

	routing Routing
	routed  bool
}

// Option configures an event at construction.
type Option func(*Event)

// WithArgs sets the positional payload.
func WithArgs(args ...any) Option {
	return func(e *Event) {
		e.Args = args
	}
}

// WithKwargs sets the keyword payload.
func WithKwargs(kwargs map[string]any) Option {
	return func(e *Event) {
		e.Kwargs = kwargs
	}
}

// WithSource sets the opaque origin marker.
func WithSource(source any) Option {
	return func(e *Event) {
		e.Source = source
	}
}

// New creates an event with the given name and options.
func New(name string, opts ...Option) *Event {
	e := &Event{
		ID:   uuid.New().String(),
		Name: name,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRouting assigns the routing envelope. The first assignment wins;
// later calls are no-ops. Managers call this at push/send time.
func (e *Event) SetRouting(channel, target string) {
	if e.routed {
		return
	}
	e.routing = Routing{Channel: channel, Target: target}
	e.routed = true
}

// Channel returns the channel the event was routed on, or "" if unrouted.
func (e *Event) Channel() string {
	return e.routing.Channel
}

// Target returns the delivery target, or "" if untargeted or unrouted.
func (e *Event) Target() string {
	return e.routing.Target
}

// Routed reports whether a manager has stamped the routing envelope.
func (e *Event) Routed() bool {
	return e.routed
}

// Arg returns the positional payload value at index i.
func (e *Event) Arg(i int) (any, error) {
	if i < 0 || i >= len(e.Args) {
		return nil, fmt.Errorf("%w: index %d, len %d", ErrArgRange, i, len(e.Args))
	}
	return e.Args[i], nil
}

// Kwarg returns the keyword payload value for key.
func (e *Event) Kwarg(key string) (any, error) {
	v, ok := e.Kwargs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoKwarg, key)
	}
	return v, nil
}

// Value looks up the payload by index. An int indexes the positional
// payload, a string the keyword payload. Any other index type is an error.
func (e *Event) Value(index any) (any, error) {
	switch i := index.(type) {
	case int:
		return e.Arg(i)
	case string:
		return e.Kwarg(i)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrBadIndex, index)
	}
}

// Equal reports whether two events carry the same name, payload, and
// routing. ID and Source are excluded.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Name == other.Name &&
		e.routing == other.routing &&
		equalArgs(e.Args, other.Args) &&
		equalKwargs(e.Kwargs, other.Kwargs)
}

// String renders the event for diagnostics, e.g.
// <Greet/app:greet (1, 2, who=world)>.
func (e *Event) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.Name)
	b.WriteString("/")
	switch {
	case e.routing.Target != "":
		b.WriteString(e.routing.Target)
		b.WriteString(":")
		b.WriteString(e.routing.Channel)
	default:
		b.WriteString(e.routing.Channel)
	}
	b.WriteString(" (")
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", a)
	}
	keys := make([]string, 0, len(e.Kwargs))
	for k := range e.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 || len(e.Args) > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Kwargs[k])
	}
	b.WriteString(")>")
	return b.String()
}

// equalArgs treats nil and empty slices as equal.
func equalArgs(a, b []any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// equalKwargs treats nil and empty maps as equal.
func equalKwargs(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
