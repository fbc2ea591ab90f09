// Package luabridge lets Lua scripts participate in the dispatch tree.
//
// A Script exposes a global "bus" table to its Lua state:
//
//	local h = bus.listen("greet", function(e)
//		print("hello", e.args[1])
//	end)
//
//	bus.filter("greet", function(e)
//		return e.kwargs.blocked -- truthy halts the send
//	end)
//
//	bus.push("Greet", "greet", {"world", loud = true})
//	bus.unbind(h)
//
// Handlers receive the event as a table (name, channel, target, args,
// kwargs) and their return value is the filter verdict. Everything runs
// synchronously on the goroutine driving the manager; the Lua state is
// never shared across goroutines.
package luabridge
