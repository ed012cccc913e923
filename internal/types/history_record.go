package types

// ExportRecord captures one completed CSV export for DynamoDB persistence
type ExportRecord struct {
	DateKey     string `json:"dateKey" dynamodbav:"DateKey"`   // YYYY-MM-DD (partition key)
	ExportID    string `json:"exportId" dynamodbav:"ExportID"` // sort key
	QueryID     string `json:"queryId" dynamodbav:"QueryID"`
	FileName    string `json:"fileName" dynamodbav:"FileName"`
	RowCount    int    `json:"rowCount" dynamodbav:"RowCount"`
	RequestedBy string `json:"requestedBy" dynamodbav:"RequestedBy"`
	CreatedAt   string `json:"createdAt" dynamodbav:"CreatedAt"` // RFC3339
}

// QuerySummaryRecord captures the outcome of one progressive query for
// DynamoDB persistence
type QuerySummaryRecord struct {
	DateKey       string         `json:"dateKey" dynamodbav:"DateKey"` // YYYY-MM-DD (partition key)
	QueryID       string         `json:"queryId" dynamodbav:"QueryID"` // sort key
	TotalRecords  int            `json:"totalRecords" dynamodbav:"TotalRecords"`
	LoadedRecords int            `json:"loadedRecords" dynamodbav:"LoadedRecords"`
	ByRecordType  map[string]int `json:"byRecordType" dynamodbav:"ByRecordType"`
	StartedAt     string         `json:"startedAt" dynamodbav:"StartedAt"`     // RFC3339
	CompletedAt   string         `json:"completedAt" dynamodbav:"CompletedAt"` // RFC3339
	Aborted       bool           `json:"aborted" dynamodbav:"Aborted"`
}
