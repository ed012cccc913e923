package types

import "strconv"

// ColumnKind selects how a column's cell value is produced.
type ColumnKind int

const (
	// ColumnField reads a record field with formatted-over-raw precedence.
	ColumnField ColumnKind = iota
	// ColumnSerial is the running row number, computed client-side.
	ColumnSerial
	// ColumnHistory flattens a nested history list to text.
	ColumnHistory
)

// Column describes one report column: its header, the record field it
// reads, and the optional pre-formatted variant the backend may populate
// instead of the raw field.
type Column struct {
	Header       string
	Kind         ColumnKind
	Key          string
	FormattedKey string
}

// ReportColumns is the single source of truth for column order. The CSV
// export header and the displayed table both derive from it; the display
// additionally appends the two interactive recording columns, which are
// never exported.
var ReportColumns = []Column{
	{Header: "S.No", Kind: ColumnSerial},
	{Header: "Record Type", Key: "record_type"},
	{Header: "Agent Name", Key: "agent_name"},
	{Header: "Extension", Key: "extension"},
	{Header: "Queue/Campaign", Key: "queue_name"},
	{Header: "Called Time", Key: "called_time", FormattedKey: "called_time_formatted"},
	{Header: "Caller Number", Key: "caller_number"},
	{Header: "Callee Number", Key: "callee_number"},
	{Header: "Answered Time", Key: "answered_time", FormattedKey: "answered_time_formatted"},
	{Header: "Hangup Time", Key: "hangup_time", FormattedKey: "hangup_time_formatted"},
	{Header: "Wait Duration", Key: "wait_duration", FormattedKey: "wait_duration_formatted"},
	{Header: "Talk Duration", Key: "talk_duration", FormattedKey: "talk_duration_formatted"},
	{Header: "Hold Duration", Key: "hold_duration", FormattedKey: "hold_duration_formatted"},
	{Header: "Hold Intervals", Key: "hold_intervals"},
	{Header: "Agent Disposition", Key: "agent_disposition"},
	{Header: "Sub Disposition 1", Key: "sub_disposition_1"},
	{Header: "Sub Disposition 2", Key: "sub_disposition_2"},
	{Header: "Follow-Up Notes", Key: "follow_up_notes"},
	{Header: "Agent Hangup", Key: "agent_hangup"},
	{Header: "Status", Key: "status"},
	{Header: "Campaign Type", Key: "campaign_type"},
	{Header: "Abandoned", Key: "abandoned"},
	{Header: "Country", Key: "country"},
	{Header: "Transfer", Key: "transfer"},
	{Header: "Transfer Extension", Key: "transfer_extension"},
	{Header: "Transfer Type", Key: "transfer_type"},
	{Header: "Agent History", Kind: ColumnHistory, Key: "agent_history"},
	{Header: "Queue History", Kind: ColumnHistory, Key: "queue_history"},
	{Header: "Recording ID", Key: "recording_id"},
	{Header: "Call ID", Key: "call_id"},
	{Header: "System Disposition", Key: "system_disposition"},
}

// ColumnHeaders returns the exportable headers in order.
func ColumnHeaders() []string {
	headers := make([]string, len(ReportColumns))
	for i, col := range ReportColumns {
		headers[i] = col.Header
	}
	return headers
}

// Value produces the cell value for this column. serial is the 1-based
// row number used by the serial column.
func (c Column) Value(rec Record, serial int) string {
	switch c.Kind {
	case ColumnSerial:
		return strconv.Itoa(serial)
	case ColumnHistory:
		if v, ok := rec[c.Key]; ok {
			return FlattenHistory(v)
		}
		return ""
	default:
		return rec.Display(c.Key, c.FormattedKey)
	}
}
