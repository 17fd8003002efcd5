package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"opulanz-onboarding/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ESIndexer writes a flattened view of each submission to Elasticsearch for the
// back office search.
type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

type indexedSubmission struct {
	ID          string                 `json:"id"`
	Reference   string                 `json:"reference"`
	WizardID    string                 `json:"wizardId"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	UserRef     string                 `json:"userRef"`
	Email       string                 `json:"email,omitempty"`
	Name        string                 `json:"name,omitempty"`
	SubmittedAt time.Time              `json:"submittedAt"`
	Payload     map[string]interface{} `json:"payload"`
}

func (i *ESIndexer) Index(ctx context.Context, r *models.SubmissionRecord) error {
	doc := indexedSubmission{
		ID:          r.ID,
		Reference:   r.Reference,
		WizardID:    r.WizardID,
		Type:        r.Type,
		Status:      string(r.Status),
		UserRef:     r.UserRef,
		Email:       payloadString(r.Payload, "email"),
		Name:        fullName(r.Payload),
		SubmittedAt: r.SubmittedAt,
		Payload:     r.Payload,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: r.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

func payloadString(p map[string]interface{}, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func fullName(p map[string]interface{}) string {
	first, last := payloadString(p, "firstName"), payloadString(p, "lastName")
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return last
	}
}
