package module

import (
	"slices"
	"sync"
)

var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register publishes ports under name, replacing earlier ones. Nil ports are ignored.
func Register(name string, ports any) {
	if ports == nil {
		return
	}
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs looks up name and asserts its ports to T; T may be an interface
// the registered value satisfies
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	out, ok2 := v.(T)
	return out, ok && ok2
}

// Names lists registered modules in sorted order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Reset empties the registry between tests
func Reset() {
	mu.Lock()
	clear(reg)
	mu.Unlock()
}
