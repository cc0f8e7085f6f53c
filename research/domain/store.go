package domain

import (
	"context"
	"time"
)

// ContentType names a searchable collection in the research store.
type ContentType string

const (
	ContentDocument ContentType = "document"
	ContentInsight  ContentType = "insight"
	ContentJTBD     ContentType = "jtbd"
	ContentMetric   ContentType = "metric"
)

var ContentTypes = []ContentType{ContentDocument, ContentInsight, ContentJTBD, ContentMetric}

func (c ContentType) IsValid() bool {
	switch c {
	case ContentDocument, ContentInsight, ContentJTBD, ContentMetric:
		return true
	}
	return false
}

// ItemType maps a content type to the selectable item type, if any.
// Documents cannot be placed in the context.
func (c ContentType) ItemType() (ItemType, bool) {
	switch c {
	case ContentInsight:
		return ItemTypeInsight, true
	case ContentJTBD:
		return ItemTypeJTBD, true
	case ContentMetric:
		return ItemTypeMetric, true
	}
	return "", false
}

type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a stored row of any content type, as returned by List and
// SearchSimilar. Only the fields relevant to its type are populated.
type Record struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title,omitempty"`
	Text        string      `json:"text"`
	Item        ContextItem `json:"item,omitempty"`
	DocumentID  string      `json:"document_id,omitempty"`
	HasVector   bool        `json:"has_vector"`
	CreatedAt   time.Time   `json:"created_at"`
}

type SearchResult struct {
	Record
	Similarity float64 `json:"similarity"`
}

type ListFilter struct {
	DocumentID string
	Query      string // substring match on the main text
	Limit      int
}

// IResearchStore is the persistence and nearest-neighbour boundary.
type IResearchStore interface {
	InitSchema(ctx context.Context) error

	CreateDocument(ctx context.Context, doc Document) error
	CreateInsight(ctx context.Context, insight Insight, documentID string) error
	CreateJTBD(ctx context.Context, jtbd JTBD, documentID string) error
	CreateMetric(ctx context.Context, metric Metric) error

	Get(ctx context.Context, contentType ContentType, id string) (Record, error)
	List(ctx context.Context, contentType ContentType, filter ListFilter) ([]Record, error)
	Delete(ctx context.Context, contentType ContentType, id string) error

	UpdateEmbedding(ctx context.Context, contentType ContentType, id string, vector []float32) error
	SearchSimilar(ctx context.Context, contentType ContentType, vector []float32, limit int, threshold float64) ([]SearchResult, error)
}
