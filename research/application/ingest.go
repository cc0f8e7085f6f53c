package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	"github.com/AzielCF/az-insights/pkg/jobworker"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/validations"
)

const embedJobTimeout = 2 * time.Minute

// Dispatcher is the part of the worker pool the ingest path needs.
type Dispatcher interface {
	TryDispatch(job jobworker.Job) bool
}

// IngestService stores research records and embeds them in the background.
type IngestService struct {
	store      domain.IResearchStore
	embeddings *EmbeddingService
	jobs       Dispatcher
}

func NewIngestService(store domain.IResearchStore, embeddings *EmbeddingService, jobs Dispatcher) *IngestService {
	return &IngestService{store: store, embeddings: embeddings, jobs: jobs}
}

func (s *IngestService) SubmitDocument(ctx context.Context, request domain.SubmitDocumentRequest) (domain.SubmitResult, error) {
	if err := validations.ValidateSubmitDocument(ctx, request); err != nil {
		return domain.SubmitResult{}, err
	}

	content, err := ExtractDocumentText(request.Content, request.Format)
	if err != nil {
		return domain.SubmitResult{}, pkgError.ValidationError(err.Error())
	}
	if content == "" {
		return domain.SubmitResult{}, pkgError.ValidationError("content: document has no text")
	}

	doc := domain.Document{
		ID:      uuid.NewString(),
		Title:   strings.TrimSpace(request.Title),
		Content: content,
		Source:  strings.TrimSpace(request.Source),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("storing document: %w", err)
	}
	return s.queued(domain.ContentDocument, doc.ID, doc.Content), nil
}

func (s *IngestService) SubmitInsight(ctx context.Context, request domain.SubmitInsightRequest) (domain.SubmitResult, error) {
	if err := validations.ValidateSubmitInsight(ctx, request); err != nil {
		return domain.SubmitResult{}, err
	}

	insight := domain.Insight{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(request.Description),
		Context:     strings.TrimSpace(request.Context),
	}
	if err := s.store.CreateInsight(ctx, insight, request.DocumentID); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("storing insight: %w", err)
	}
	return s.queued(domain.ContentInsight, insight.ID, insight.TokenText()), nil
}

func (s *IngestService) SubmitJTBD(ctx context.Context, request domain.SubmitJTBDRequest) (domain.SubmitResult, error) {
	if err := validations.ValidateSubmitJTBD(ctx, request); err != nil {
		return domain.SubmitResult{}, err
	}

	jtbd := domain.JTBD{
		ID:        uuid.NewString(),
		Statement: strings.TrimSpace(request.Statement),
		Context:   strings.TrimSpace(request.Context),
		Outcome:   strings.TrimSpace(request.Outcome),
	}
	if err := s.store.CreateJTBD(ctx, jtbd, request.DocumentID); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("storing jtbd: %w", err)
	}
	return s.queued(domain.ContentJTBD, jtbd.ID, jtbd.TokenText()), nil
}

func (s *IngestService) SubmitMetric(ctx context.Context, request domain.SubmitMetricRequest) (domain.SubmitResult, error) {
	if err := validations.ValidateSubmitMetric(ctx, request); err != nil {
		return domain.SubmitResult{}, err
	}

	metric := domain.Metric{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(request.Name),
		Description:  strings.TrimSpace(request.Description),
		CurrentValue: request.CurrentValue,
		TargetValue:  request.TargetValue,
	}
	if err := s.store.CreateMetric(ctx, metric); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("storing metric: %w", err)
	}
	return s.queued(domain.ContentMetric, metric.ID, metric.TokenText()), nil
}

// Reindex queues an embedding job for every record of contentType that has
// no vector yet and returns how many were accepted.
func (s *IngestService) Reindex(ctx context.Context, contentType domain.ContentType) (int, error) {
	records, err := s.store.List(ctx, contentType, domain.ListFilter{})
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, rec := range records {
		if rec.HasVector {
			continue
		}
		if s.dispatch(contentType, rec.ID, rec.Text) {
			queued++
		}
	}
	logrus.Infof("[INGEST] Reindex queued %d %s records", queued, contentType)
	return queued, nil
}

func (s *IngestService) Get(ctx context.Context, contentType domain.ContentType, id string) (domain.Record, error) {
	return s.store.Get(ctx, contentType, id)
}

func (s *IngestService) List(ctx context.Context, contentType domain.ContentType, filter domain.ListFilter) ([]domain.Record, error) {
	return s.store.List(ctx, contentType, filter)
}

func (s *IngestService) Delete(ctx context.Context, contentType domain.ContentType, id string) error {
	return s.store.Delete(ctx, contentType, id)
}

// EmbedRecord computes and stores the vector for one record. It is the body
// of every embedding job and may also be called synchronously.
func (s *IngestService) EmbedRecord(ctx context.Context, contentType domain.ContentType, id, text string) error {
	vector, err := s.embeddings.Embed(ctx, text)
	if err != nil {
		return err
	}
	return s.store.UpdateEmbedding(ctx, contentType, id, vector)
}

func (s *IngestService) queued(contentType domain.ContentType, id, text string) domain.SubmitResult {
	return domain.SubmitResult{
		ID:          id,
		ContentType: contentType,
		Embedded:    s.dispatch(contentType, id, text),
	}
}

func (s *IngestService) dispatch(contentType domain.ContentType, id, text string) bool {
	if s.jobs == nil {
		return false
	}
	return s.jobs.TryDispatch(jobworker.Job{
		Key: string(contentType) + ":" + id,
		Handler: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, embedJobTimeout)
			defer cancel()
			return s.EmbedRecord(ctx, contentType, id, text)
		},
	})
}
