package storage

import "github.com/AyanDgr8/cdr-spc-sub001/internal/types"

// Store defines the report history storage interface
type Store interface {
	SaveExportRecord(record types.ExportRecord) error
	SaveQuerySummary(summary types.QuerySummaryRecord) error
	GetExportRecords(dateKey string) ([]types.ExportRecord, error)
	GetQuerySummaries(dateKey string) ([]types.QuerySummaryRecord, error)
	TruncateAll() error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveExportRecord(_ types.ExportRecord) error { return nil }
func (s *NoopStore) SaveQuerySummary(_ types.QuerySummaryRecord) error { return nil }
func (s *NoopStore) GetExportRecords(_ string) ([]types.ExportRecord, error) { return nil, nil }
func (s *NoopStore) GetQuerySummaries(_ string) ([]types.QuerySummaryRecord, error) {
	return nil, nil
}
func (s *NoopStore) TruncateAll() error { return nil }
