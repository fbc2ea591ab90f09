package dispatch

import (
	"sort"

	"github.com/dshills/relay/channel"
	"github.com/dshills/relay/handler"
)

// Registry maps channel keys to ordered handler lists and tracks the set
// of all handlers registered to a manager. Within a key's list every
// filter precedes every listener, ties by insertion order.
//
// The registry performs no locking; a tree's root owns it and all access
// must be externally serialized in multi-threaded hosts.
type Registry struct {
	channels map[string][]*handler.Handler
	members  map[*handler.Handler]struct{}
	order    []*handler.Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string][]*handler.Handler),
		members:  make(map[*handler.Handler]struct{}),
	}
}

// Add registers h under the given channel key. An empty key means the
// global channel "*". Adding the same handler to the same key twice is a
// no-op. The key's list is re-ordered so filters precede listeners.
func (r *Registry) Add(h *handler.Handler, key string) error {
	if !h.Valid() {
		return &InvalidHandlerError{Handler: h}
	}

	if _, ok := r.members[h]; !ok {
		r.members[h] = struct{}{}
		r.order = append(r.order, h)
	}

	if key == "" {
		key = channel.Wildcard
	}

	list, ok := r.channels[key]
	if !ok {
		r.channels[key] = []*handler.Handler{h}
		return nil
	}
	for _, existing := range list {
		if existing == h {
			return nil
		}
	}
	list = append(list, h)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Kind() == handler.Filter && list[j].Kind() != handler.Filter
	})
	r.channels[key] = list
	return nil
}

// Remove unregisters h. With an empty key the handler is removed from
// every channel key; otherwise only from the named key. The handler is
// always dropped from the member set. Remove is idempotent and never
// fails for absent handlers.
func (r *Registry) Remove(h *handler.Handler, key string) {
	if _, ok := r.members[h]; ok {
		delete(r.members, h)
		for i, m := range r.order {
			if m == h {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}

	var keys []string
	if key == "" {
		keys = make([]string, 0, len(r.channels))
		for k := range r.channels {
			keys = append(keys, k)
		}
	} else {
		keys = []string{key}
	}

	for _, k := range keys {
		list := r.channels[k]
		for i, x := range list {
			if x == h {
				r.channels[k] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if list != nil && len(r.channels[k]) == 0 {
			delete(r.channels, k)
		}
	}
}

// HandlersFor resolves a channel string to the ordered handler sequence
// that a send on that channel delivers to. The string may be a bare
// channel, "target:channel", or contain "*" on either side.
//
// Except for the fully-open "*:*" case the sequence starts with the
// global ("*") handlers, followed by the matching per-channel lists.
// No deduplication is performed. Wildcard cases scan keys in sorted
// order so resolution is deterministic.
func (r *Registry) HandlersFor(s string) []*handler.Handler {
	target, name := channel.Parse(s)

	if target == channel.Wildcard && name == channel.Wildcard {
		// Every registered handler, no per-channel structure.
		out := make([]*handler.Handler, len(r.order))
		copy(out, r.order)
		return out
	}

	var out []*handler.Handler
	out = append(out, r.channels[channel.Wildcard]...)

	switch {
	case target == channel.Wildcard:
		// The channel on any target.
		for _, k := range r.sortedKeys() {
			if channel.OnChannel(k, name) {
				out = append(out, r.channels[k]...)
			}
		}
	case name == channel.Wildcard:
		// Every channel of the target, plus untargeted keys.
		for _, k := range r.sortedKeys() {
			if (target != "" && channel.OnTarget(k, target)) || !channel.Targeted(k) {
				out = append(out, r.channels[k]...)
			}
		}
	default:
		if target != "" {
			out = append(out, r.channels[channel.Join(target, channel.Wildcard)]...)
		}
		out = append(out, r.channels[s]...)
	}
	return out
}

// Contains reports whether h is registered under any key.
func (r *Registry) Contains(h *handler.Handler) bool {
	_, ok := r.members[h]
	return ok
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.members)
}

// Members returns all registered handlers in insertion order.
func (r *Registry) Members() []*handler.Handler {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]*handler.Handler, len(r.order))
	copy(out, r.order)
	return out
}

// ByKey returns a copy of the handler list for a channel key.
func (r *Registry) ByKey(key string) []*handler.Handler {
	list := r.channels[key]
	if len(list) == 0 {
		return nil
	}
	out := make([]*handler.Handler, len(list))
	copy(out, list)
	return out
}

// Keys returns all channel keys in sorted order.
func (r *Registry) Keys() []string {
	return r.sortedKeys()
}

func (r *Registry) sortedKeys() []string {
	if len(r.channels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.channels))
	for k := range r.channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
