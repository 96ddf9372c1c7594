package store

import (
	"context"
	"slices"
	"sync"

	"github.com/amishk599/jobfeed/internal/filter"
	"github.com/amishk599/jobfeed/internal/model"
)

// Ensure MemoryStore implements model.JobRepository.
var _ model.JobRepository = (*MemoryStore)(nil)

// MemoryStore keeps jobs in insertion order in process memory. It suits tests
// and short-lived runs; nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs []model.Job
	ids  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (s *MemoryStore) FindExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

// InsertBatch appends jobs whose ID is not yet stored.
func (s *MemoryStore) InsertBatch(_ context.Context, jobs []model.Job) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []string
	for _, j := range jobs {
		if _, ok := s.ids[j.ID]; ok {
			continue
		}
		j.Skills = slices.Clone(nonNil(j.Skills))
		s.jobs = append(s.jobs, j)
		s.ids[j.ID] = struct{}{}
		inserted = append(inserted, j.ID)
	}
	return inserted, nil
}

// QueryPage scans under one read lock so the page and total agree.
func (s *MemoryStore) QueryPage(_ context.Context, q model.PageQuery) ([]model.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := filter.Criteria{Title: q.Title, Location: q.Location}
	var page []model.Job
	total := 0
	for _, j := range s.jobs {
		if !c.Match(j) {
			continue
		}
		if total >= q.Offset && len(page) < q.Limit {
			j.Skills = slices.Clone(j.Skills)
			page = append(page, j)
		}
		total++
	}
	return page, total, nil
}

// Len reports how many jobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
