// Package memory keeps users and jobs in process memory. It honours the same
// contracts as the Postgres repositories and backs the service and handler
// tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"job-tracker/internal/query"
)

// Store holds the shared state of the user and job repositories.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]userRecord
	jobs  map[uuid.UUID]jobRecord

	// tx serialises transactions.
	tx sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]userRecord),
		jobs:  make(map[uuid.UUID]jobRecord),
	}
}

// WithinTransaction runs fn and restores the users and jobs it saw on
// entry if fn fails.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.tx.Lock()
	defer s.tx.Unlock()

	s.mu.RLock()
	users, jobs := maps.Clone(s.users), maps.Clone(s.jobs)
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.users, s.jobs = users, jobs
		s.mu.Unlock()
		return err
	}
	return nil
}

type getter func(id uuid.UUID) interface{}

// selectIDs filters, sorts and pages ids the way applyFeatures does in SQL.
func selectIDs(ids []uuid.UUID, schema query.Schema, fields map[string]getter, req query.Request) ([]uuid.UUID, error) {
	if err := schema.Validate(req); err != nil {
		return nil, err
	}

	var out []uuid.UUID
	for _, id := range ids {
		keep := true
		for _, c := range req.Filters {
			want, _ := schema.Value(c.Field, c.Value)
			if !matches(compare(fields[c.Field](id), want), c.Op) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, id)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, s := range req.Sort {
			cmp := compare(fields[s.Field](out[i]), fields[s.Field](out[j]))
			if cmp == 0 {
				continue
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return out[i].String() < out[j].String()
	})

	if req.Skip < 0 || req.Skip >= len(out) {
		return nil, nil
	}
	out = out[req.Skip:]
	if req.Take > 0 && req.Take < len(out) {
		out = out[:req.Take]
	}
	return out, nil
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case uuid.UUID:
		return strings.Compare(av.String(), b.(uuid.UUID).String())
	default:
		return strings.Compare(a.(string), b.(string))
	}
}

func matches(cmp int, op query.Operator) bool {
	switch op {
	case query.OpGte:
		return cmp >= 0
	case query.OpGt:
		return cmp > 0
	case query.OpLte:
		return cmp <= 0
	case query.OpLt:
		return cmp < 0
	default:
		return cmp == 0
	}
}
