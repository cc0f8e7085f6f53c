package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	domain "github.com/AzielCF/az-insights/research/domain"
)

// Persistence models keep gorm tags out of the domain types. Embeddings are
// stored as JSON arrays so the same schema works on sqlite and postgres.
type documentModel struct {
	ID        string `gorm:"primaryKey"`
	Title     string
	Content   string
	Source    string
	Embedding []float32 `gorm:"serializer:json"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (documentModel) TableName() string { return "research_documents" }

type insightModel struct {
	ID          string `gorm:"primaryKey"`
	Description string
	Context     string
	DocumentID  string    `gorm:"column:document_id;index"`
	Embedding   []float32 `gorm:"serializer:json"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (insightModel) TableName() string { return "research_insights" }

type jtbdModel struct {
	ID         string `gorm:"primaryKey"`
	Statement  string
	Context    string
	Outcome    string
	DocumentID string    `gorm:"column:document_id;index"`
	Embedding  []float32 `gorm:"serializer:json"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (jtbdModel) TableName() string { return "research_jtbds" }

type metricModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Description  string
	CurrentValue *float64  `gorm:"column:current_value"`
	TargetValue  *float64  `gorm:"column:target_value"`
	Embedding    []float32 `gorm:"serializer:json"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (metricModel) TableName() string { return "research_metrics" }

type researchRow interface {
	toRecord() domain.Record
	vector() []float32
}

func (m documentModel) vector() []float32 { return m.Embedding }
func (m insightModel) vector() []float32  { return m.Embedding }
func (m jtbdModel) vector() []float32     { return m.Embedding }
func (m metricModel) vector() []float32   { return m.Embedding }

func (m documentModel) toRecord() domain.Record {
	return domain.Record{
		ID:          m.ID,
		ContentType: domain.ContentDocument,
		Title:       m.Title,
		Text:        m.Content,
		HasVector:   len(m.Embedding) > 0,
		CreatedAt:   m.CreatedAt,
	}
}

func (m insightModel) toRecord() domain.Record {
	item := domain.Insight{ID: m.ID, Description: m.Description, Context: m.Context}
	return domain.Record{
		ID:          m.ID,
		ContentType: domain.ContentInsight,
		Text:        item.TokenText(),
		Item:        item,
		DocumentID:  m.DocumentID,
		HasVector:   len(m.Embedding) > 0,
		CreatedAt:   m.CreatedAt,
	}
}

func (m jtbdModel) toRecord() domain.Record {
	item := domain.JTBD{ID: m.ID, Statement: m.Statement, Context: m.Context, Outcome: m.Outcome}
	return domain.Record{
		ID:          m.ID,
		ContentType: domain.ContentJTBD,
		Text:        item.TokenText(),
		Item:        item,
		DocumentID:  m.DocumentID,
		HasVector:   len(m.Embedding) > 0,
		CreatedAt:   m.CreatedAt,
	}
}

func (m metricModel) toRecord() domain.Record {
	item := domain.Metric{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		CurrentValue: m.CurrentValue,
		TargetValue:  m.TargetValue,
	}
	return domain.Record{
		ID:          m.ID,
		ContentType: domain.ContentMetric,
		Title:       m.Name,
		Text:        item.TokenText(),
		Item:        item,
		HasVector:   len(m.Embedding) > 0,
		CreatedAt:   m.CreatedAt,
	}
}

// table describes how a content type is stored.
type table struct {
	model       any
	textColumn  string
	hasDocument bool
	find        func(q *gorm.DB) ([]researchRow, error)
}

var tables = map[domain.ContentType]table{
	domain.ContentDocument: {model: &documentModel{}, textColumn: "content", find: findRows[documentModel]},
	domain.ContentInsight:  {model: &insightModel{}, textColumn: "description", hasDocument: true, find: findRows[insightModel]},
	domain.ContentJTBD:     {model: &jtbdModel{}, textColumn: "statement", hasDocument: true, find: findRows[jtbdModel]},
	domain.ContentMetric:   {model: &metricModel{}, textColumn: "name", find: findRows[metricModel]},
}

func findRows[T researchRow](q *gorm.DB) ([]researchRow, error) {
	var models []T
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]researchRow, len(models))
	for i, m := range models {
		rows[i] = m
	}
	return rows, nil
}

func tableFor(contentType domain.ContentType) (table, error) {
	t, ok := tables[contentType]
	if !ok {
		return table{}, pkgError.ValidationError(fmt.Sprintf("invalid content type %q", contentType))
	}
	return t, nil
}

// ResearchGormRepository implements domain.IResearchStore using GORM.
// Similarity search is computed in process over the rows that carry an
// embedding.
type ResearchGormRepository struct {
	db *gorm.DB
}

func NewResearchGormRepository(db *gorm.DB) *ResearchGormRepository {
	return &ResearchGormRepository{db: db}
}

func (r *ResearchGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&documentModel{}, &insightModel{}, &jtbdModel{}, &metricModel{})
}

func (r *ResearchGormRepository) CreateDocument(ctx context.Context, doc domain.Document) error {
	return r.db.WithContext(ctx).Create(&documentModel{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: doc.Content,
		Source:  doc.Source,
	}).Error
}

func (r *ResearchGormRepository) CreateInsight(ctx context.Context, insight domain.Insight, documentID string) error {
	return r.db.WithContext(ctx).Create(&insightModel{
		ID:          insight.ID,
		Description: insight.Description,
		Context:     insight.Context,
		DocumentID:  documentID,
	}).Error
}

func (r *ResearchGormRepository) CreateJTBD(ctx context.Context, jtbd domain.JTBD, documentID string) error {
	return r.db.WithContext(ctx).Create(&jtbdModel{
		ID:         jtbd.ID,
		Statement:  jtbd.Statement,
		Context:    jtbd.Context,
		Outcome:    jtbd.Outcome,
		DocumentID: documentID,
	}).Error
}

func (r *ResearchGormRepository) CreateMetric(ctx context.Context, metric domain.Metric) error {
	return r.db.WithContext(ctx).Create(&metricModel{
		ID:           metric.ID,
		Name:         metric.Name,
		Description:  metric.Description,
		CurrentValue: metric.CurrentValue,
		TargetValue:  metric.TargetValue,
	}).Error
}

func (r *ResearchGormRepository) Get(ctx context.Context, contentType domain.ContentType, id string) (domain.Record, error) {
	t, err := tableFor(contentType)
	if err != nil {
		return domain.Record{}, err
	}

	rows, err := t.find(r.db.WithContext(ctx).Where("id = ?", id).Limit(1))
	if err != nil {
		return domain.Record{}, err
	}
	if len(rows) == 0 {
		return domain.Record{}, pkgError.NotFoundError(fmt.Sprintf("%s %s not found", contentType, id))
	}
	return rows[0].toRecord(), nil
}

// List returns newest rows first.
func (r *ResearchGormRepository) List(ctx context.Context, contentType domain.ContentType, filter domain.ListFilter) ([]domain.Record, error) {
	t, err := tableFor(contentType)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.DocumentID != "" {
		if !t.hasDocument {
			return nil, pkgError.ValidationError(fmt.Sprintf("%s records are not linked to documents", contentType))
		}
		q = q.Where("document_id = ?", filter.DocumentID)
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		q = q.Where("LOWER("+t.textColumn+") LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	rows, err := t.find(q)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

func (r *ResearchGormRepository) Delete(ctx context.Context, contentType domain.ContentType, id string) error {
	t, err := tableFor(contentType)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(t.model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError(fmt.Sprintf("%s %s not found", contentType, id))
	}
	return nil
}

func (r *ResearchGormRepository) UpdateEmbedding(ctx context.Context, contentType domain.ContentType, id string, vector []float32) error {
	var update any
	switch contentType {
	case domain.ContentDocument:
		update = &documentModel{Embedding: vector}
	case domain.ContentInsight:
		update = &insightModel{Embedding: vector}
	case domain.ContentJTBD:
		update = &jtbdModel{Embedding: vector}
	case domain.ContentMetric:
		update = &metricModel{Embedding: vector}
	default:
		return pkgError.ValidationError(fmt.Sprintf("invalid content type %q", contentType))
	}

	res := r.db.WithContext(ctx).Model(update).Where("id = ?", id).Select("embedding").Updates(update)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError(fmt.Sprintf("%s %s not found", contentType, id))
	}
	return nil
}

// SearchSimilar ranks the rows of one content type by cosine similarity to
// vector. Rows below threshold, or embedded with another dimension, are
// skipped. limit <= 0 returns every match.
func (r *ResearchGormRepository) SearchSimilar(ctx context.Context, contentType domain.ContentType, vector []float32, limit int, threshold float64) ([]domain.SearchResult, error) {
	t, err := tableFor(contentType)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, pkgError.ValidationError("query vector is empty")
	}

	rows, err := t.find(r.db.WithContext(ctx).Where("embedding IS NOT NULL"))
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		vec := row.vector()
		if len(vec) != len(vector) {
			continue
		}
		score := CosineSimilarity(vector, vec)
		if score < threshold {
			continue
		}
		results = append(results, domain.SearchResult{Record: row.toRecord(), Similarity: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
