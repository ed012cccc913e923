package types

import "fmt"

// FilterCriteria carries the user's report query parameters. Start and End
// are client-local timestamps sent as opaque strings; the upstream query
// backend interprets them. All other filters are optional equality filters.
type FilterCriteria struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`

	ContactNumber     string `json:"contact_number,omitempty"`
	AgentName         string `json:"agent_name,omitempty"`
	Extension         string `json:"extension,omitempty"`
	Queue             string `json:"queue,omitempty"`
	RecordType        string `json:"record_type,omitempty"`
	AgentDisposition  string `json:"agent_disposition,omitempty"`
	SubDisposition1   string `json:"sub_disposition_1,omitempty"`
	SubDisposition2   string `json:"sub_disposition_2,omitempty"`
	SystemDisposition string `json:"system_disposition,omitempty"`
	Status            string `json:"status,omitempty"`
	CampaignType      string `json:"campaign_type,omitempty"`
	Country           string `json:"country,omitempty"`
	Transfer          string `json:"transfer,omitempty"`
}

// ValidationError reports missing required filter fields. No upstream
// request is issued when validation fails.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required filter field: %s", e.Field)
}

// Validate checks that the required time range is present.
func (c FilterCriteria) Validate() error {
	if c.Start == "" {
		return &ValidationError{Field: "start_time"}
	}
	if c.End == "" {
		return &ValidationError{Field: "end_time"}
	}
	return nil
}
