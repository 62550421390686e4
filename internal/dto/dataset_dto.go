package dto

// PublishIndexRecordMessage is the payload of one INDEX_RECORD event
type PublishIndexRecordMessage struct {
	RowIndex   int    `json:"row_index"`
	DrugName   string `json:"drug_name"`
	CancerType string `json:"cancer_type"`
	Document   string `json:"document"`
}

type ReloadDatasetResponse struct {
	RecordsPublished int `json:"records_published"`
}
