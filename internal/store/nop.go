package store

import (
	"context"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It never persists anything,
// so every record appears new on each run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Upsert(_ context.Context, records []model.JobRecord) (UpsertReport, error) {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return UpsertReport{}, err
		}
	}
	return UpsertReport{Inserted: len(records)}, nil
}

func (s *NopStore) SelectUnenriched(context.Context) ([]model.JobRecord, error) { return nil, nil }

func (s *NopStore) ExistingIDs(context.Context, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (s *NopStore) DeleteWhere(context.Context, Predicate) (int, error) { return 0, nil }
func (s *NopStore) Stats(context.Context, int) (Stats, error)           { return Stats{}, nil }
func (s *NopStore) Close() error                                        { return nil }
