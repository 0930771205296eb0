// internal/workers/complaints/file-complaint/models.go
package filecomplaint

type Input struct {
	BusinessID    string `json:"businessId"`
	ReporterName  string `json:"reporterName"`
	ReporterEmail string `json:"reporterEmail"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
}

type Output struct {
	ComplaintID string `json:"complaintId"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}
