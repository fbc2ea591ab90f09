// Package dispatch implements the event dispatch engine: registries,
// managers, and components.
//
// # Model
//
// Handlers (package handler) subscribe to string channels. A Manager owns
// a Registry of those subscriptions and a queue of pending events.
// Components are managers that also declare their own handler bindings
// and can attach to another manager, forming a tree with exactly one
// root; Push, Flush, and Send always execute at the root, so one queue
// and one registry serve the whole tree.
//
// # Channels and resolution
//
// A registry key is a bare channel ("connect"), target-qualified
// ("server:connect"), or the global "*". Resolution composes four cases:
//
//	handlers("x")    exact channel
//	handlers("t:x")  exact channel on one target, plus the target-wide "t:*"
//	handlers("*:x")  the channel on every target
//	handlers("t:*")  every channel of one target, plus untargeted keys
//	handlers("*:*")  every registered handler
//
// Global "*" handlers precede all other matches and, within any key's
// list, filters precede listeners. A filter returning true halts the
// remaining handlers of that send; it is the system's only cancellation
// mechanism.
//
// # Queue semantics
//
// Push only enqueues. Flush swaps the queue out and drains the batch
// from the tail, so the last event pushed is dispatched first within one
// flush. Events pushed while flushing wait for the next flush.
//
// # Concurrency
//
// Everything is synchronous and runs on the caller's goroutine. The
// engine takes no locks; a multi-threaded host must serialize access to
// each tree's root externally.
//
// # Usage
//
//	greet := handler.NewListener(func(e *event.Event) bool {
//		who, _ := e.Arg(0)
//		fmt.Println("hello", who)
//		return false
//	}, "greet")
//
//	m := dispatch.New()
//	if err := m.Add(greet, "greet"); err != nil {
//		log.Fatal(err)
//	}
//	m.Push(event.New("Greet", event.WithArgs("world")), "greet", "")
//	m.Flush()
package dispatch
