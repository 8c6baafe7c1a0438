package health

import (
	"context"

	"github.com/tarahq/tara/internal/state"
)

// StoreChecker returns a Checker that pings the lock/quota store.
func StoreChecker(s state.Store) Checker {
	return Checker{
		Name: "state",
		Check: func(ctx context.Context) error {
			return s.Ping(ctx)
		},
	}
}

// ProbeChecker wraps an arbitrary probe function under the given name.
// Used for provider reachability checks, e.g. the ElevenLabs voice listing.
func ProbeChecker(name string, probe func(ctx context.Context) error) Checker {
	return Checker{Name: name, Check: probe}
}
