package luabridge

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/relay/event"
)

// eventToTable renders an event for a Lua handler: name/channel/target
// fields, args as an array, kwargs as a table.
func eventToTable(L *lua.LState, e *event.Event) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(e.Name))
	L.SetField(tbl, "channel", lua.LString(e.Channel()))
	L.SetField(tbl, "target", lua.LString(e.Target()))

	args := L.NewTable()
	for i, a := range e.Args {
		args.RawSetInt(i+1, goToLua(L, a))
	}
	L.SetField(tbl, "args", args)

	kwargs := L.NewTable()
	for k, v := range e.Kwargs {
		kwargs.RawSetString(k, goToLua(L, v))
	}
	L.SetField(tbl, "kwargs", kwargs)

	return tbl
}

// tableToPayload splits a Lua table into positional args (the array
// part) and kwargs (string keys).
func tableToPayload(tbl *lua.LTable) ([]any, map[string]any) {
	var args []any
	n := tbl.Len()
	for i := 1; i <= n; i++ {
		args = append(args, luaToGo(tbl.RawGetInt(i)))
	}

	var kwargs map[string]any
	tbl.ForEach(func(key, value lua.LValue) {
		ks, ok := key.(lua.LString)
		if !ok {
			return
		}
		if kwargs == nil {
			kwargs = make(map[string]any)
		}
		kwargs[string(ks)] = luaToGo(value)
	})

	return args, kwargs
}

func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, goToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, goToLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		arrLen := val.Len()
		if arrLen > 0 {
			arr := make([]any, 0, arrLen)
			for i := 1; i <= arrLen; i++ {
				arr = append(arr, luaToGo(val.RawGetInt(i)))
			}
			return arr
		}
		m := make(map[string]any)
		val.ForEach(func(k, item lua.LValue) {
			m[k.String()] = luaToGo(item)
		})
		return m
	default:
		return v.String()
	}
}
