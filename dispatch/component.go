package dispatch

import (
	"github.com/dshills/relay/channel"
	"github.com/dshills/relay/event"
	"github.com/dshills/relay/handler"
)

// RegisteredName is the name of the event sent when a component attaches
// to a foreign manager.
const RegisteredName = "Registered"

// RegisteredChannel is the channel the Registered event is sent on.
const RegisteredChannel = "registered"

// Registered creates the attachment-notification event.
func Registered() *event.Event {
	return event.New(RegisteredName)
}

// Component is a manager that is also a subscriber: it declares an
// ordered list of handler bindings at construction and registers them
// with a target manager (itself by default), forming a tree.
//
// When the component has a channel name, each binding's channel is
// prefixed with it ("component:binding") at registration time, scoping
// delivery to the component.
type Component struct {
	Manager

	channel  string
	bindings []*handler.Handler
}

// NewComponent creates a component with the given channel name and
// handler bindings, registered to itself. An empty channel name leaves
// binding channels unprefixed. It fails with ErrInvalidHandler when any
// binding lacks a recognized kind.
func NewComponent(channelName string, bindings ...*handler.Handler) (*Component, error) {
	c := &Component{channel: channelName}
	initManager(&c.Manager)
	c.bindings = append(c.bindings, bindings...)
	if err := c.Register(&c.Manager); err != nil {
		return nil, err
	}
	return c, nil
}

// Channel returns the component's channel name.
func (c *Component) Channel() string {
	return c.channel
}

// Bindings returns the component's declared bindings in order.
func (c *Component) Bindings() []*handler.Handler {
	if len(c.bindings) == 0 {
		return nil
	}
	out := make([]*handler.Handler, len(c.bindings))
	copy(out, c.bindings)
	return out
}

// Bind declares an additional binding and registers it with the
// component's current manager. The component's own registry tracks the
// binding as well so a later Unregister removes it.
func (c *Component) Bind(h *handler.Handler) error {
	if err := addBinding(&c.Manager, c.channel, h); err != nil {
		return err
	}
	if c.owner != &c.Manager {
		if err := addBinding(c.owner, c.channel, h); err != nil {
			return err
		}
	}
	c.bindings = append(c.bindings, h)
	return nil
}

// Register adds every binding to the target manager. Bindings with no
// declared channels subscribe globally; otherwise each channel name is
// prefixed with the component's channel when one is set. If the target
// is not the component itself, a Registered event is sent (not queued)
// on the "registered" channel targeted at the component's channel.
// Finally the component delegates to the target.
func (c *Component) Register(target *Manager) error {
	for _, h := range c.bindings {
		if err := addBinding(target, c.channel, h); err != nil {
			return err
		}
	}
	if target != &c.Manager {
		target.Send(Registered(), RegisteredChannel, c.channel)
	}
	c.owner = target
	return nil
}

// Unregister removes every handler in the component's own registry from
// its current manager, then reverts the component to being its own root.
func (c *Component) Unregister() {
	for _, h := range c.registry.Members() {
		c.owner.Remove(h, "")
	}
	c.owner = &c.Manager
}

// addBinding registers one binding under the prefixed channel keys.
func addBinding(target *Manager, prefix string, h *handler.Handler) error {
	names := h.Channels()
	if len(names) == 0 {
		names = []string{channel.Wildcard}
	}
	for _, name := range names {
		key := name
		if prefix != "" {
			key = channel.Join(prefix, name)
		}
		if err := target.Add(h, key); err != nil {
			return err
		}
	}
	return nil
}
