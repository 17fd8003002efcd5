// pkg/registry/schema.go
package registry

import "encoding/json"

// Catalog is the exported description of every wizard and the process workers
// that back them.
type Catalog struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Wizards     []Wizard   `json:"wizards"`
	Activities  []Activity `json:"activities"`
}

type Wizard struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	SubmissionType   string `json:"submissionType"`
	Endpoint         string `json:"endpoint"`
	ReferencePrefix  string `json:"referencePrefix"`
	Scheduling       bool   `json:"scheduling"`
	Steps            []Step `json:"steps"`
	StorageNamespace string `json:"storageNamespace"`
}

type Step struct {
	ID     string          `json:"id"`
	Order  int             `json:"order"`
	Label  string          `json:"label"`
	Fields []string        `json:"fields,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

type Activity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	TaskType    string   `json:"taskType"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Retries     int      `json:"retries"`
}
