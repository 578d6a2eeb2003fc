// Package effect maps effect names to the runners that animate them.
package effect

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/lixenwraith/tiny-terminal/rain"
)

// Default is the effect used when none is named
const Default = "matrix"

// Runner animates one effect on s until cancelled
type Runner func(ctx context.Context, s rain.Surface, opts rain.Options) (rain.Stats, error)

var (
	runnersMu sync.RWMutex
	runners   = make(map[string]Runner)
)

func init() {
	Register(Default, rain.Run)
}

// Register adds a runner under a case-insensitive name, replacing any previous one
func Register(name string, r Runner) {
	runnersMu.Lock()
	defer runnersMu.Unlock()
	runners[strings.ToLower(name)] = r
}

// Unregister removes a runner; unknown names are ignored
func Unregister(name string) {
	runnersMu.Lock()
	defer runnersMu.Unlock()
	delete(runners, strings.ToLower(name))
}

// Lookup retrieves a runner by name, ignoring case
func Lookup(name string) (Runner, bool) {
	runnersMu.RLock()
	defer runnersMu.RUnlock()
	r, ok := runners[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// Names returns all registered effect names in sorted order
func Names() []string {
	runnersMu.RLock()
	defer runnersMu.RUnlock()
	names := make([]string, 0, len(runners))
	for name := range runners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
