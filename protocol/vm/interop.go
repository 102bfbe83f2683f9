package vm

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// Service is a host function reachable through SYSCALL. It reads its
// arguments from and pushes its results to e's evaluation stack.
// A non-nil error faults the engine.
type Service func(e *Engine) error

// Interop maps SYSCALL names to services. Names are resolved once,
// at registration: both the canonical dotted name and its legacy
// AntShares spelling map to the service, as does the normalized
// key returned by ServiceKey.
type Interop struct {
	mu     sync.RWMutex
	byName map[string]*service
}

type service struct {
	key string
	fn  Service
}

// NewInterop returns an empty service table.
func NewInterop() *Interop {
	return &Interop{byName: make(map[string]*service)}
}

// Register adds fn under name, which should be a dotted name such
// as "Neo.Storage.GetContext". Registering a name twice replaces
// the earlier service.
func (in *Interop) Register(name string, fn Service) {
	s := &service{key: ServiceKey(name), fn: fn}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.byName[name] = s
	in.byName[s.key] = s
	switch {
	case strings.HasPrefix(name, "Neo."):
		in.byName["AntShares."+strings.TrimPrefix(name, "Neo.")] = s
	case strings.HasPrefix(name, "AntShares."):
		in.byName["Neo."+strings.TrimPrefix(name, "AntShares.")] = s
	}
}

// Lookup returns the service registered under name.
func (in *Interop) Lookup(name string) (Service, bool) {
	in.mu.RLock()
	s, ok := in.byName[name]
	in.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.fn, true
}

// Invoke runs the service registered under name against e.
func (in *Interop) Invoke(e *Engine, name string) error {
	fn, ok := in.Lookup(name)
	if !ok {
		return errors.WithDetailf(ErrUnknownService, "%q", name)
	}
	return errors.Wrapf(fn(e), "%s", name)
}

// Keys returns the normalized keys of every registered service,
// sorted.
func (in *Interop) Keys() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	seen := make(map[string]bool)
	var keys []string
	for _, s := range in.byName {
		if !seen[s.key] {
			seen[s.key] = true
			keys = append(keys, s.key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ServiceKey normalizes a dotted service name:
// dots become underscores, the legacy AntShares prefix becomes Neo,
// an underscore separates a lowercase letter or digit from a following
// uppercase letter, and the result is lowercased. For example
// "AntShares.Storage.GetContext" becomes "neo_storage_get_context".
func ServiceKey(name string) string {
	name = strings.Replace(name, ".", "_", -1)
	name = strings.Replace(name, "AntShares", "Neo", -1)
	var b strings.Builder
	var prev rune
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return b.String()
}
