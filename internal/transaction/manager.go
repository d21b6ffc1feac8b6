package transaction

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// UndoFunc is a function that reverses a provisioning step
type UndoFunc func() error

type operation struct {
	name string
	fn   UndoFunc
}

// Manager tracks the resources a single run created so that a failure can
// remove them and only them. Pre-existing resources are never registered,
// so rollback leaves them untouched.
type Manager struct {
	ops    []operation
	mu     sync.Mutex
	logger *zerolog.Logger
}

// NewManager creates a new transaction manager
func NewManager(logger *zerolog.Logger) *Manager {
	return &Manager{logger: logger}
}

// Add registers an undo function for a resource this run created
func (m *Manager) Add(name string, fn UndoFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, operation{name: name, fn: fn})
}

// Len returns the number of pending undo operations
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ops)
}

// Rollback executes all registered undo functions in reverse order (LIFO)
func (m *Manager) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ops) == 0 {
		return nil
	}

	if m.logger != nil {
		m.logger.Info().Int("operations", len(m.ops)).Msg("rolling back")
	}

	var errs []error
	for i := len(m.ops) - 1; i >= 0; i-- {
		op := m.ops[i]
		if m.logger != nil {
			m.logger.Debug().Str("operation", op.name).Msg("undoing")
		}

		if err := op.fn(); err != nil {
			errs = append(errs, fmt.Errorf("undo %q: %w", op.name, err))
			if m.logger != nil {
				m.logger.Error().Err(err).Str("operation", op.name).Msg("rollback step failed")
			}
		}
	}

	m.ops = nil

	if len(errs) > 0 {
		return fmt.Errorf("rollback completed with errors: %v", errs)
	}
	return nil
}

// Commit clears the undo stack, confirming the run succeeded
func (m *Manager) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}
