// Package event defines the event value type for the dispatch engine.
//
// An Event pairs a name with a positional payload (Args) and a keyword
// payload (Kwargs). Routing information (channel, target) lives in a
// separate envelope stamped once by the manager that first routes the
// event; the payload itself is never copied or rewritten per delivery.
//
//	e := event.New("Greet", event.WithArgs("world"), event.WithKwargs(map[string]any{"loud": true}))
//	who, _ := e.Arg(0)
//	loud, _ := e.Kwarg("loud")
package event
