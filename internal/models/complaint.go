// internal/models/complaint.go
package models

const ComplaintStatusSubmitted = "submitted"

type Complaint struct {
	ID            string `json:"id"`
	BusinessID    string `json:"businessId"`
	ReporterName  string `json:"reporterName"`
	ReporterEmail string `json:"reporterEmail"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"` // ISO 8601
}
