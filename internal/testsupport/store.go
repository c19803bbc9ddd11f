package testsupport

import (
	"context"
	"testing"

	"backfill/internal/config"
	"backfill/internal/reconcile"
	"backfill/internal/store"
)

// MustOpenStore opens and migrates the configured store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	descriptor, err := cfg.Descriptor()
	if err != nil {
		t.Fatalf("cfg.Descriptor: %v", err)
	}
	ctx := context.Background()
	s, err := store.Open(ctx, descriptor, store.Options{Table: cfg.Database.Table})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("store.Migrate: %v", err)
	}
	return s
}

// Seed inserts records into s.
func Seed(t testing.TB, s *store.Store, records ...reconcile.Record) {
	t.Helper()

	for _, record := range records {
		if err := s.Insert(context.Background(), record); err != nil {
			t.Fatalf("store.Insert %s: %v", record.ID, err)
		}
	}
}

// Year returns a pointer to year for record literals.
func Year(year int) *int {
	return &year
}
