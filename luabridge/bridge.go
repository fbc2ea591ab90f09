package luabridge

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/relay/dispatch"
	"github.com/dshills/relay/event"
	"github.com/dshills/relay/handler"
)

// ErrScriptClosed is returned when a closed script is used.
var ErrScriptClosed = errors.New("script is closed")

// Script hosts a Lua state bound to a manager. Scripts register
// listeners and filters through the global "bus" table and publish
// events back through the same manager.
//
// The Lua state is not goroutine-safe. Scripts run on the goroutine that
// drives the manager; since dispatch is synchronous, handler callbacks
// already arrive there.
type Script struct {
	mgr *dispatch.Manager
	L   *lua.LState

	// handle -> descriptor, for unbind and Close
	bound map[string]*handler.Handler

	// pins Lua handler functions against GC
	handlerTbl *lua.LTable

	closed bool
}

// Open creates a script bound to mgr.
func Open(mgr *dispatch.Manager) *Script {
	L := lua.NewState()

	s := &Script{
		mgr:   mgr,
		L:     L,
		bound: make(map[string]*handler.Handler),
	}

	s.handlerTbl = L.NewTable()
	L.SetGlobal("_bus_handlers", s.handlerTbl)

	mod := L.NewTable()
	L.SetField(mod, "listen", L.NewFunction(s.listen))
	L.SetField(mod, "filter", L.NewFunction(s.filter))
	L.SetField(mod, "unbind", L.NewFunction(s.unbind))
	L.SetField(mod, "push", L.NewFunction(s.push))
	L.SetField(mod, "send", L.NewFunction(s.send))
	L.SetGlobal("bus", mod)

	return s
}

// DoString runs Lua source in the script's state.
func (s *Script) DoString(src string) error {
	if s.closed {
		return ErrScriptClosed
	}
	return s.L.DoString(src)
}

// DoFile runs a Lua file in the script's state.
func (s *Script) DoFile(path string) error {
	if s.closed {
		return ErrScriptClosed
	}
	return s.L.DoFile(path)
}

// Bound returns the number of handlers the script currently has
// registered.
func (s *Script) Bound() int {
	return len(s.bound)
}

// Close unbinds every script handler from the manager and closes the
// Lua state.
func (s *Script) Close() {
	if s.closed {
		return
	}
	for handle, h := range s.bound {
		s.mgr.Remove(h, "")
		s.handlerTbl.RawSetString(handle, lua.LNil)
	}
	s.bound = make(map[string]*handler.Handler)
	s.closed = true
	s.L.Close()
}

// bind registers a Lua function as a handler of the given kind.
func (s *Script) bind(L *lua.LState, kind handler.Kind) int {
	channelName := L.CheckString(1)
	fn := L.CheckFunction(2)

	if channelName == "" {
		L.ArgError(1, "channel cannot be empty")
		return 0
	}

	handle := uuid.New().String()
	s.handlerTbl.RawSetString(handle, fn)

	h := handler.New(s.callback(handle),
		handler.WithKind(kind), handler.WithChannels(channelName))
	if err := s.mgr.Add(h, channelName); err != nil {
		s.handlerTbl.RawSetString(handle, lua.LNil)
		L.RaiseError("bind: %v", err)
		return 0
	}
	s.bound[handle] = h

	L.Push(lua.LString(handle))
	return 1
}

// listen(channel, fn) -> handle
func (s *Script) listen(L *lua.LState) int {
	return s.bind(L, handler.Listener)
}

// filter(channel, fn) -> handle
// The Lua function's return value is the filter verdict: truthy halts
// the send.
func (s *Script) filter(L *lua.LState) int {
	return s.bind(L, handler.Filter)
}

// unbind(handle) -> bool
func (s *Script) unbind(L *lua.LState) int {
	handle := L.CheckString(1)

	h, ok := s.bound[handle]
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	delete(s.bound, handle)
	s.handlerTbl.RawSetString(handle, lua.LNil)
	s.mgr.Remove(h, "")

	L.Push(lua.LTrue)
	return 1
}

// push(name, channel, data?, target?)
// data is a table: the array part becomes Args, string keys become
// Kwargs.
func (s *Script) push(L *lua.LState) int {
	e, channelName, target := s.checkPublish(L)
	s.mgr.Push(e, channelName, target)
	return 0
}

// send(name, channel, data?, target?)
func (s *Script) send(L *lua.LState) int {
	e, channelName, target := s.checkPublish(L)
	s.mgr.Send(e, channelName, target)
	return 0
}

func (s *Script) checkPublish(L *lua.LState) (*event.Event, string, string) {
	name := L.CheckString(1)
	channelName := L.CheckString(2)

	var opts []event.Option
	if L.GetTop() >= 3 {
		if tbl := L.OptTable(3, nil); tbl != nil {
			args, kwargs := tableToPayload(tbl)
			if len(args) > 0 {
				opts = append(opts, event.WithArgs(args...))
			}
			if len(kwargs) > 0 {
				opts = append(opts, event.WithKwargs(kwargs))
			}
		}
	}

	target := ""
	if L.GetTop() >= 4 {
		target = L.OptString(4, "")
	}

	return event.New(name, opts...), channelName, target
}

// callback adapts a pinned Lua function to the handler contract. A Lua
// error propagates to the Send caller like any other handler failure.
func (s *Script) callback(handle string) handler.Func {
	return func(e *event.Event) bool {
		if s.closed {
			return false
		}
		fn := s.L.GetField(s.handlerTbl, handle)
		if fn.Type() != lua.LTFunction {
			return false
		}

		s.L.Push(fn)
		s.L.Push(eventToTable(s.L, e))
		if err := s.L.PCall(1, 1, nil); err != nil {
			panic(fmt.Errorf("lua handler %s: %w", handle, err))
		}
		ret := s.L.Get(-1)
		s.L.Pop(1)
		return lua.LVAsBool(ret)
	}
}
