// Package testutil provides shared test helpers for local stores.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/existflow/ohm/internal/db"
)

// TestDB creates a temporary SQLite database that is closed on cleanup.
func TestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "ohm-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// ErrBroken is returned by every BrokenKV operation
var ErrBroken = errors.New("store unavailable")

// BrokenKV is a key/value store whose every operation fails
type BrokenKV struct{}

// Get always fails
func (BrokenKV) Get(context.Context, string) (string, error) { return "", ErrBroken }

// Set always fails
func (BrokenKV) Set(context.Context, string, string) error { return ErrBroken }

// Delete always fails
func (BrokenKV) Delete(context.Context, string) error { return ErrBroken }
