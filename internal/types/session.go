package types

import "github.com/google/uuid"

// QuerySession is the cursor over one progressive query. QueryID is the
// server-assigned identity; Token is the local identity used to discard
// results from a superseded session (an identity check rather than a
// boolean flag, so two rapid consecutive query starts are handled
// correctly).
type QuerySession struct {
	QueryID       string    `json:"queryId"`
	Token         uuid.UUID `json:"-"`
	TotalPages    int       `json:"totalPages"`
	TotalRecords  int       `json:"totalRecords"`
	CurrentPage   int       `json:"currentPage"`
	LoadedRecords int       `json:"loadedRecords"`
	Active        bool      `json:"active"`
	Complete      bool      `json:"isComplete"`
}

// LoadSummary is reported when a query completes: total records loaded
// and the breakdown by record-type category.
type LoadSummary struct {
	TotalRecords int            `json:"totalRecords"`
	ByRecordType map[string]int `json:"byRecordType"`
}

// Summarize computes the completion summary over the full result buffer.
// Records with no record type are grouped under "unknown".
func Summarize(records []Record) LoadSummary {
	summary := LoadSummary{
		TotalRecords: len(records),
		ByRecordType: make(map[string]int),
	}
	for _, rec := range records {
		recordType := rec.Display("record_type", "")
		if recordType == "" {
			recordType = "unknown"
		}
		summary.ByRecordType[recordType]++
	}
	return summary
}
