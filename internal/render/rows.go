package render

import "github.com/AyanDgr8/cdr-spc-sub001/internal/types"

// Row is one displayed table row: the exportable cells in column order
// plus the interactive recording actions, which exist only in the
// display and never in the CSV.
type Row struct {
	Cells   []string   `json:"cells"`
	Actions RowActions `json:"actions"`
}

// RowActions carries the per-row interactive controls.
type RowActions struct {
	RecordingID string `json:"recordingId,omitempty"`
	CallID      string `json:"callId,omitempty"`
	CanPlay     bool   `json:"canPlay"`
	CanListAll  bool   `json:"canListAll"`
}

// BuildRow maps one record to its display row. serial is the 1-based row
// number. Pure data-to-presentation mapping; all fallback rules live in
// the column table.
func BuildRow(rec types.Record, serial int) Row {
	cells := make([]string, len(types.ReportColumns))
	for i, col := range types.ReportColumns {
		cells[i] = col.Value(rec, serial)
	}

	recordingID := rec.Display("recording_id", "")
	callID := rec.Display("call_id", "")
	return Row{
		Cells: cells,
		Actions: RowActions{
			RecordingID: recordingID,
			CallID:      callID,
			CanPlay:     recordingID != "",
			CanListAll:  callID != "",
		},
	}
}

// BuildRows maps records[offset:offset+limit] to display rows. The slice
// bounds are clipped to the record count.
func BuildRows(records []types.Record, offset, limit int) []Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}

	rows := make([]Row, 0, end-offset)
	for i := offset; i < end; i++ {
		rows = append(rows, BuildRow(records[i], i+1))
	}
	return rows
}
