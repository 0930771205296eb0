// pkg/registry/schema.go
package registry

// Registry describes the job workers a deployment exposes and, optionally, the category
// buckets that replace the built-in ones.
type Registry struct {
	Version     string              `json:"version"`
	LastUpdated string              `json:"lastUpdated"`
	Activities  []Activity          `json:"activities"`
	Buckets     map[string][]string `json:"buckets,omitempty"`
}

type Activity struct {
	ID                   string   `json:"id"`
	DisplayName          string   `json:"displayName"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	Version              string   `json:"version"`
	TaskType             string   `json:"taskType"`
	ImplementationStatus string   `json:"implementationStatus"`
	ErrorCodes           []string `json:"errorCodes"`
	Timeout              string   `json:"timeout"`
	Retries              int      `json:"retries"`
	MaxJobsActive        int      `json:"maxJobsActive,omitempty"`
	Workflows            []string `json:"workflows"`
	Tags                 []string `json:"tags"`
}
