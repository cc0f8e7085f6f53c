package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/validations"
)

const DefaultSearchLimit = 10

// SearchService runs semantic search over the research store and feeds
// results into the context manager.
type SearchService struct {
	store      domain.IResearchStore
	embeddings *EmbeddingService
	context    domain.IContextManager
}

func NewSearchService(store domain.IResearchStore, embeddings *EmbeddingService, contextManager domain.IContextManager) *SearchService {
	return &SearchService{store: store, embeddings: embeddings, context: contextManager}
}

// Search embeds the query once and merges the matches of every requested
// content type by similarity, highest first.
func (s *SearchService) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	if err := validations.ValidateSearch(ctx, request); err != nil {
		return nil, err
	}

	types := domain.ContentTypes
	if len(request.Types) > 0 {
		types = make([]domain.ContentType, 0, len(request.Types))
		for _, t := range request.Types {
			types = append(types, domain.ContentType(t))
		}
	}
	limit := request.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vector, err := s.embeddings.Embed(ctx, request.Query)
	if err != nil {
		return nil, err
	}

	var merged []domain.SearchResult
	for _, ct := range types {
		results, err := s.store.SearchSimilar(ctx, ct, vector, limit, request.Threshold)
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", ct, err)
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	logrus.WithFields(logrus.Fields{
		"types":   types,
		"results": len(merged),
	}).Debug("[SEARCH] Query resolved")

	return merged, nil
}

// SelectRecord loads a stored insight, JTBD or metric and adds it to the
// context.
func (s *SearchService) SelectRecord(ctx context.Context, contentType domain.ContentType, id string) (domain.SelectionResult, error) {
	itemType, ok := contentType.ItemType()
	if !ok {
		return domain.SelectionResult{}, pkgError.ValidationError(fmt.Sprintf("%s records cannot be added to the context", contentType))
	}

	record, err := s.store.Get(ctx, contentType, id)
	if err != nil {
		return domain.SelectionResult{}, err
	}
	return s.context.AddSelection(itemType, record.Item)
}
