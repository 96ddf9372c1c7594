package store

import (
	"context"

	"github.com/amishk599/jobfeed/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It never remembers jobs, so
// every fetched job appears new on each import.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) FindExistingIDs(context.Context, []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (s *NopStore) InsertBatch(_ context.Context, jobs []model.Job) ([]string, error) {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids, nil
}
func (s *NopStore) QueryPage(context.Context, model.PageQuery) ([]model.Job, int, error) {
	return nil, 0, nil
}
