package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/dice"
	"github.com/cory-johannsen/mudworld/internal/game/world"
)

// globalDir is the script subdirectory loaded by LoadDir as the shared VM.
const globalDir = "global"

// zoneVM is one sandboxed state. The mutex serializes every call into L;
// current is only set while a trigger is running.
type zoneVM struct {
	mu      sync.Mutex
	zone    world.EntityID
	L       *lua.LState
	cancel  func()
	current *world.Trigger
}

func (vm *zoneVM) close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.L.Close()
}

// Manager owns one sandboxed LState per zone and dispatches hooks and reset
// triggers into them. It implements world.TriggerRunner.
//
// Manager is safe for concurrent use. Calls into the same zone are
// serialized; different zones run concurrently.
type Manager struct {
	mu        sync.RWMutex
	zones     map[world.EntityID]*zoneVM
	global    *zoneVM
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int
}

// NewManager creates a Manager whose VMs run at most instLimit opcodes per
// call (0 selects DefaultInstructionLimit).
//
// Precondition: roller and logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a non-nil Manager with no zones loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	if instLimit < 0 {
		panic(fmt.Sprintf("scripting.NewManager: instruction limit must be >= 0, got %d", instLimit))
	}
	return &Manager{
		zones:     make(map[world.EntityID]*zoneVM),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// LoadZone creates a sandboxed VM for zone, registers the world module,
// then executes every *.lua file in scriptDir in lexicographic order. A
// previously loaded VM for the zone is replaced.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Zone VM is registered; returns error on Lua load failure.
func (m *Manager) LoadZone(zone world.EntityID, scriptDir string) error {
	vm, err := m.load(zone, scriptDir)
	if err != nil {
		return err
	}
	m.mu.Lock()
	old := m.zones[zone]
	m.zones[zone] = vm
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// LoadGlobal creates the shared VM used as a fallback by CallHook and
// RunTrigger for zones without their own script.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string) error {
	vm, err := m.load(world.InvalidID, scriptDir)
	if err != nil {
		return err
	}
	m.mu.Lock()
	old := m.global
	m.global = vm
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// LoadDir loads every subdirectory of root named by a zone number, plus the
// "global" subdirectory when present. Other entries are ignored.
//
// Postcondition: Returns the number of zone VMs loaded.
func (m *Manager) LoadDir(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if e.Name() == globalDir {
			if err := m.LoadGlobal(dir); err != nil {
				return n, err
			}
			continue
		}
		id, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			m.logger.Debug("scripting: ignoring non-zone directory", zap.String("dir", dir))
			continue
		}
		if err := m.LoadZone(world.EntityID(id), dir); err != nil {
			return n, err
		}
		n++
	}
	m.logger.Info("scripts loaded", zap.Int("zones", n), zap.String("root", root))
	return n, nil
}

func (m *Manager) load(zone world.EntityID, scriptDir string) (*zoneVM, error) {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q for zone %s: %w", scriptDir, zone, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L, cancel := NewSandboxedState(m.instLimit)
	vm := &zoneVM{zone: zone, L: L, cancel: cancel}
	m.registerModules(vm)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			vm.close()
			return nil, fmt.Errorf("scripting: loading %q for zone %s: %w", path, zone, err)
		}
	}
	return vm, nil
}

// vmFor returns the zone's VM, or the global VM when the zone has none.
func (m *Manager) vmFor(zone world.EntityID) *zoneVM {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if vm, ok := m.zones[zone]; ok {
		return vm
	}
	return m.global
}

// HasZone reports whether zone has its own VM.
func (m *Manager) HasZone(zone world.EntityID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.zones[zone]
	return ok
}

// call runs fn in vm under a fresh instruction budget. vm.mu must be held.
func (m *Manager) call(vm *zoneVM, fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.cancel = limitInstructions(vm.L, m.instLimit)
	if err := vm.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, err
	}
	ret := vm.L.Get(-1)
	vm.L.Pop(1)
	return ret, nil
}

// CallHook calls the named Lua global function in zone's VM. If the zone has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors are logged at Warn
// level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zone world.EntityID, hook string, args ...lua.LValue) (lua.LValue, error) {
	vm := m.vmFor(zone)
	if vm == nil {
		m.logger.Info("scripting: no VM for zone",
			zap.Uint64("zone", uint64(zone)),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	fn := vm.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	ret, err := m.call(vm, fn, args...)
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.Uint64("zone", uint64(zone)),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// RunTrigger executes a Trigger reset command. It calls on_trigger_<id> if
// the script defines it, otherwise on_trigger, passing the trigger id and the
// room. The world module functions act on t.World for the duration of the call.
//
// Postcondition: Returns an error when no script handles the trigger, the
// script fails, or it returns false.
func (m *Manager) RunTrigger(t world.Trigger) error {
	vm := m.vmFor(t.Zone)
	if vm == nil {
		return fmt.Errorf("scripting: no script for zone %s", t.Zone)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	name := fmt.Sprintf("on_trigger_%d", uint64(t.ID))
	fn := vm.L.GetGlobal(name)
	if fn == lua.LNil {
		name = "on_trigger"
		fn = vm.L.GetGlobal(name)
	}
	if fn == lua.LNil {
		return fmt.Errorf("scripting: zone %s has no handler for trigger %s", t.Zone, t.ID)
	}

	vm.current = &t
	defer func() { vm.current = nil }()

	ret, err := m.call(vm, fn, idValue(t.ID), idValue(t.Room))
	if err != nil {
		return fmt.Errorf("scripting: trigger %s in zone %s: %w", t.ID, t.Zone, err)
	}
	if ret == lua.LFalse {
		return fmt.Errorf("scripting: trigger %s in zone %s declined", t.ID, t.Zone)
	}
	m.logger.Debug("trigger ran",
		zap.Uint64("zone", uint64(t.Zone)),
		zap.Uint64("trigger", uint64(t.ID)),
		zap.String("handler", name),
	)
	return nil
}

// Close releases every VM.
//
// Postcondition: No zone or global VM remains registered.
func (m *Manager) Close() {
	m.mu.Lock()
	zones := m.zones
	global := m.global
	m.zones = make(map[world.EntityID]*zoneVM)
	m.global = nil
	m.mu.Unlock()

	for _, vm := range zones {
		vm.close()
	}
	if global != nil {
		global.close()
	}
}

func idValue(id world.EntityID) lua.LValue {
	if !id.IsValid() {
		return lua.LNil
	}
	return lua.LNumber(id)
}
