package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudworld/internal/scripting"
)

func newState(t testing.TB, limit int) *lua.LState {
	t.Helper()
	L, cancel := scripting.NewSandboxedState(limit)
	require.NotNil(t, L)
	t.Cleanup(func() {
		cancel()
		L.Close()
	})
	return L
}

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := newState(t, 0)
	for _, name := range []string{"os", "io", "debug"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	L := newState(t, 0)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := newState(t, 0)
	err := L.DoString(`
		local x = math.sqrt(4)
		assert(x == 2.0, "math.sqrt failed")
		local s = string.upper("hello")
		assert(s == "HELLO", "string.upper failed")
		local t = {}
		table.insert(t, 1)
		assert(#t == 1, "table.insert failed")
	`)
	assert.NoError(t, err)
}

func TestNewSandboxedState_InstructionLimitExceeded(t *testing.T) {
	L := newState(t, 10)
	assert.Error(t, L.DoString(`while true do end`), "expected instruction limit error")
}

func TestNewSandboxedState_DefaultLimit_NormalScriptRuns(t *testing.T) {
	L := newState(t, 0)
	assert.NoError(t, L.DoString(`local x = 1 + 1`))
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(rt, "limit")
		L, cancel := scripting.NewSandboxedState(limit)
		defer L.Close()
		defer cancel()
		if err := L.DoString(`while true do end`); err == nil {
			rt.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
