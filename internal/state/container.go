package state

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/azizikri/project-eligibility/internal/domain"
)

// State is everything the billing header reads: the signed-in user, their
// projects, their payments data and the header's own UI flags.
type State struct {
	Users    domain.UsersState    `json:"users"`
	Projects domain.ProjectsState `json:"projects"`
	Payments domain.PaymentsState `json:"payments"`
	App      domain.AppState      `json:"app"`
}

// Container owns one State. Commits are serialized; reads work on the last
// published snapshot and never block on a commit in progress.
type Container struct {
	mu      sync.Mutex
	current atomic.Pointer[State]
}

func New() *Container {
	c := &Container{}
	c.current.Store(&State{})
	return c
}

// Commit applies the mutations in order as one unit. Every mutation is
// validated before anything is applied; on error the published state is left
// untouched.
func (c *Container) Commit(mutations ...Mutation) error {
	for _, m := range mutations {
		if m == nil {
			return fmt.Errorf("nil mutation: %w", domain.ErrUnknownMutation)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.current.Load()
	for _, m := range mutations {
		if ck, ok := m.(checker); ok {
			if err := ck.check(&next); err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
		}
		m.apply(&next)
	}

	c.current.Store(&next)
	return nil
}

func (c *Container) snapshot() *State {
	return c.current.Load()
}

// Read projects the current snapshot through selector. The snapshot is shared
// with every other reader, so a selector returning slices must copy them; the
// selectors in this package do.
func Read[T any](c *Container, selector func(*State) T) T {
	return selector(c.snapshot())
}
