package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/flashplay/internal/db"
	"github.com/vytor/flashplay/internal/worker"
)

// NewTestDB opens a private in-memory SQLite database with all migrations
// applied. It is closed when the test ends.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// InlineDispatcher runs jobs synchronously on Submit. Jobs must not call
// back into whoever submitted them.
type InlineDispatcher struct {
	mu     sync.Mutex
	Names  []string
	Errors []error
}

func (d *InlineDispatcher) Submit(job worker.Job) error {
	err := job.Run(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Names = append(d.Names, job.Name())
	if err != nil {
		d.Errors = append(d.Errors, err)
	}
	return nil
}
