package types

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		criteria     FilterCriteria
		missingField string
	}{
		{
			name:     "valid with only time range",
			criteria: FilterCriteria{Start: "2024-06-01 00:00:00", End: "2024-06-02 00:00:00"},
		},
		{
			name:         "missing start",
			criteria:     FilterCriteria{End: "2024-06-02 00:00:00"},
			missingField: "start_time",
		},
		{
			name:         "missing end",
			criteria:     FilterCriteria{Start: "2024-06-01 00:00:00"},
			missingField: "end_time",
		},
		{
			name:         "missing both reports start first",
			criteria:     FilterCriteria{},
			missingField: "start_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.Validate()
			if tt.missingField == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.missingField {
				t.Errorf("expected field %q, got %q", tt.missingField, validationErr.Field)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{"record_type": "inbound"},
		{"record_type": "inbound"},
		{"record_type": "outbound"},
		{},
	}

	summary := Summarize(records)

	if summary.TotalRecords != 4 {
		t.Errorf("expected 4 total records, got %d", summary.TotalRecords)
	}
	if summary.ByRecordType["inbound"] != 2 {
		t.Errorf("expected 2 inbound, got %d", summary.ByRecordType["inbound"])
	}
	if summary.ByRecordType["outbound"] != 1 {
		t.Errorf("expected 1 outbound, got %d", summary.ByRecordType["outbound"])
	}
	if summary.ByRecordType["unknown"] != 1 {
		t.Errorf("expected 1 unknown, got %d", summary.ByRecordType["unknown"])
	}
}
