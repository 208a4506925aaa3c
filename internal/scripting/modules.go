package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

// registerModules installs the world table into vm's state. Functions that
// touch the world fail softly (nil or false plus a message) when called
// outside a trigger.
func (m *Manager) registerModules(vm *zoneVM) {
	L := vm.L
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"zone": func(L *lua.LState) int {
			if vm.current != nil {
				L.Push(lua.LNumber(vm.current.Zone))
			} else {
				L.Push(idValue(vm.zone))
			}
			return 1
		},
		"room_name": func(L *lua.LState) int {
			id := world.EntityID(L.CheckInt64(1))
			if vm.current == nil || vm.current.World == nil {
				L.Push(lua.LNil)
				return 1
			}
			r, ok := vm.current.World.Room(id)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(r.Name()))
			return 1
		},
		"open_door":   doorFunc(vm, world.OpOpen),
		"close_door":  doorFunc(vm, world.OpClose),
		"lock_door":   doorFunc(vm, world.OpLock),
		"unlock_door": doorFunc(vm, world.OpUnlock),
		"spawn_object": func(L *lua.LState) int {
			proto := world.EntityID(L.CheckInt64(1))
			room := world.EntityID(L.CheckInt64(2))
			if vm.current == nil || vm.current.World == nil {
				L.Push(lua.LFalse)
				return 1
			}
			L.Push(lua.LBool(vm.current.World.SpawnObject(proto, room)))
			return 1
		},
		"roll": func(L *lua.LState) int {
			res, err := m.roller.RollExpr(L.CheckString(1))
			if err != nil {
				L.RaiseError("roll: %s", err.Error())
				return 0
			}
			L.Push(lua.LNumber(res.Total()))
			return 1
		},
		"log": func(L *lua.LState) int {
			m.logger.Info("script",
				zap.Uint64("zone", uint64(vm.zone)),
				zap.String("msg", L.CheckString(1)),
			)
			return 0
		},
	})
	L.SetGlobal("world", mod)
}

// doorFunc builds world.<op>_door(room, dir). dir is a direction name,
// abbreviation or number. Returns true, or false and a reason.
func doorFunc(vm *zoneVM, op world.DoorOp) lua.LGFunction {
	return func(L *lua.LState) int {
		room := world.EntityID(L.CheckInt64(1))
		dir, ok := luaDirection(L.Get(2))
		if !ok {
			L.Push(lua.LFalse)
			L.Push(lua.LString("invalid direction"))
			return 2
		}
		if vm.current == nil || vm.current.World == nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString("no world outside a trigger"))
			return 2
		}
		if err := vm.current.World.ApplyDoor(room, dir, op); err != nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LTrue)
		return 1
	}
}

func luaDirection(v lua.LValue) (world.Direction, bool) {
	switch v := v.(type) {
	case lua.LNumber:
		d := world.Direction(int(v))
		return d, d >= 0 && d < world.DirectionNone
	case lua.LString:
		return world.ParseDirection(string(v))
	}
	return world.DirectionNone, false
}
