package reconcile_test

import (
	"context"
	"errors"
	"iter"
	"sync"

	"backfill/internal/catalog"
	"backfill/internal/reconcile"
)

type searchCall struct {
	title string
	year  *int
}

// stubSearcher answers by title; exact responses apply when a year is passed.
type stubSearcher struct {
	mu      sync.Mutex
	exact   map[string][]catalog.Match
	relaxed map[string][]catalog.Match
	calls   []searchCall
}

func newStubSearcher() *stubSearcher {
	return &stubSearcher{
		exact:   map[string][]catalog.Match{},
		relaxed: map[string][]catalog.Match{},
	}
}

func (s *stubSearcher) Search(_ context.Context, title string, year *int) []catalog.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, searchCall{title: title, year: year})
	if year != nil {
		return s.exact[title]
	}
	return s.relaxed[title]
}

func (s *stubSearcher) callsFor(title string) []searchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []searchCall
	for _, call := range s.calls {
		if call.title == title {
			out = append(out, call)
		}
	}
	return out
}

type sliceSource struct {
	records []reconcile.Record
	failAt  int
	err     error
}

func (s sliceSource) FetchUnresolved(context.Context) iter.Seq2[reconcile.Record, error] {
	return func(yield func(reconcile.Record, error) bool) {
		for i, record := range s.records {
			if s.err != nil && i == s.failAt {
				yield(reconcile.Record{}, s.err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
		if s.err != nil && s.failAt >= len(s.records) {
			yield(reconcile.Record{}, s.err)
		}
	}
}

type write struct {
	recordID   string
	identifier int64
}

// memorySink stores committed writes and can fail selected records.
type memorySink struct {
	mu        sync.Mutex
	committed []write
	failFor   map[string]error
	rollbacks int
	begins    int
}

func newMemorySink() *memorySink {
	return &memorySink{failFor: map[string]error{}}
}

func (s *memorySink) Begin(context.Context) (reconcile.Tx, error) {
	s.mu.Lock()
	s.begins++
	s.mu.Unlock()
	return &memoryTx{sink: s}, nil
}

func (s *memorySink) writes() []write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]write, len(s.committed))
	copy(out, s.committed)
	return out
}

type memoryTx struct {
	sink    *memorySink
	pending []write
	done    bool
}

func (t *memoryTx) SetIdentifier(_ context.Context, recordID string, identifier int64) error {
	t.sink.mu.Lock()
	err := t.sink.failFor[recordID]
	t.sink.mu.Unlock()
	if err != nil {
		return err
	}
	t.pending = append(t.pending, write{recordID: recordID, identifier: identifier})
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	t.sink.mu.Lock()
	t.sink.committed = append(t.sink.committed, t.pending...)
	t.sink.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.pending = nil
	t.sink.mu.Lock()
	t.sink.rollbacks++
	t.sink.mu.Unlock()
	return nil
}

func intPtr(v int) *int { return &v }
