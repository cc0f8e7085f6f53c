package validations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	domain "github.com/AzielCF/az-insights/research/domain"
)

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var ve pkgError.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestValidateContextItem(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateContextItem(ctx, domain.Insight{ID: "i1", Description: "d"}))
	assert.NoError(t, ValidateContextItem(ctx, domain.JTBD{ID: "j1", Statement: "s"}))
	assert.NoError(t, ValidateContextItem(ctx, domain.Metric{ID: "m1", Name: "n"}))

	assertValidationError(t, ValidateContextItem(ctx, domain.Insight{Description: "d"}))
	assertValidationError(t, ValidateContextItem(ctx, domain.Insight{ID: "i1"}))
	assertValidationError(t, ValidateContextItem(ctx, domain.JTBD{ID: "j1"}))
	assertValidationError(t, ValidateContextItem(ctx, domain.Metric{ID: "m1"}))
	assertValidationError(t, ValidateContextItem(ctx, nil))
}

func TestValidateAddSelection(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateAddSelection(ctx, domain.AddSelectionRequest{ItemType: "insight", Item: json.RawMessage(`{"id":"x"}`)}))
	assertValidationError(t, ValidateAddSelection(ctx, domain.AddSelectionRequest{ItemType: "insight"}))
	assertValidationError(t, ValidateAddSelection(ctx, domain.AddSelectionRequest{Item: json.RawMessage(`{}`)}))
}

func TestValidateUpdateLimits(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateUpdateLimits(ctx, domain.UpdateLimitsRequest{MaxTokens: 4000, TokenBuffer: 500}))
	assert.NoError(t, ValidateUpdateLimits(ctx, domain.UpdateLimitsRequest{MaxTokens: 4000}))
	assertValidationError(t, ValidateUpdateLimits(ctx, domain.UpdateLimitsRequest{}))
	assertValidationError(t, ValidateUpdateLimits(ctx, domain.UpdateLimitsRequest{MaxTokens: -1}))
	assertValidationError(t, ValidateUpdateLimits(ctx, domain.UpdateLimitsRequest{MaxTokens: 10, TokenBuffer: -5}))
}

func TestValidateTruncate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateTruncate(ctx, domain.TruncateRequest{}))
	assert.NoError(t, ValidateTruncate(ctx, domain.TruncateRequest{TargetPercent: 60}))
	assertValidationError(t, ValidateTruncate(ctx, domain.TruncateRequest{TargetPercent: 150}))
}

func TestValidateSearch(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateSearch(ctx, domain.SearchRequest{Query: "onboarding", Types: []string{"insight", "jtbd"}, Limit: 10, Threshold: 0.3}))
	assertValidationError(t, ValidateSearch(ctx, domain.SearchRequest{}))
	assertValidationError(t, ValidateSearch(ctx, domain.SearchRequest{Query: "q", Types: []string{"tweets"}}))
	assertValidationError(t, ValidateSearch(ctx, domain.SearchRequest{Query: "q", Limit: MaxSearchLimit + 1}))
	assertValidationError(t, ValidateSearch(ctx, domain.SearchRequest{Query: "q", Threshold: 2}))
}

func TestValidateSubmitRequests(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateSubmitDocument(ctx, domain.SubmitDocumentRequest{Title: "t", Content: "c"}))
	assertValidationError(t, ValidateSubmitDocument(ctx, domain.SubmitDocumentRequest{Title: "t"}))

	assert.NoError(t, ValidateSubmitInsight(ctx, domain.SubmitInsightRequest{Description: "d"}))
	assertValidationError(t, ValidateSubmitInsight(ctx, domain.SubmitInsightRequest{}))

	assert.NoError(t, ValidateSubmitJTBD(ctx, domain.SubmitJTBDRequest{Statement: "s"}))
	assertValidationError(t, ValidateSubmitJTBD(ctx, domain.SubmitJTBDRequest{}))

	assert.NoError(t, ValidateSubmitMetric(ctx, domain.SubmitMetricRequest{Name: "n"}))
	assertValidationError(t, ValidateSubmitMetric(ctx, domain.SubmitMetricRequest{}))
}
