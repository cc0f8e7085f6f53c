package validations

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	domain "github.com/AzielCF/az-insights/research/domain"
)

const (
	MaxSearchLimit = 100
	maxTextLength  = 20000
	maxTitleLength = 500
)

func wrap(err error) error {
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// ValidateContextItem checks the fields a selectable item must carry.
func ValidateContextItem(ctx context.Context, item domain.ContextItem) error {
	switch v := item.(type) {
	case domain.Insight:
		return wrap(validation.ValidateStructWithContext(ctx, &v,
			validation.Field(&v.ID, validation.Required),
			validation.Field(&v.Description, validation.Required, validation.Length(1, maxTextLength)),
		))
	case domain.JTBD:
		return wrap(validation.ValidateStructWithContext(ctx, &v,
			validation.Field(&v.ID, validation.Required),
			validation.Field(&v.Statement, validation.Required, validation.Length(1, maxTextLength)),
		))
	case domain.Metric:
		return wrap(validation.ValidateStructWithContext(ctx, &v,
			validation.Field(&v.ID, validation.Required),
			validation.Field(&v.Name, validation.Required, validation.Length(1, maxTitleLength)),
		))
	case nil:
		return pkgError.ValidationError("item is required")
	default:
		return pkgError.ValidationError(fmt.Sprintf("unsupported item %T", item))
	}
}

func ValidateAddSelection(ctx context.Context, request domain.AddSelectionRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ItemType, validation.Required),
		validation.Field(&request.Item, validation.Required),
	))
}

func ValidateUpdateLimits(ctx context.Context, request domain.UpdateLimitsRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&request.TokenBuffer, validation.Min(0)),
	))
}

func ValidateTruncate(ctx context.Context, request domain.TruncateRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.TargetPercent, validation.Min(0.0), validation.Max(100.0)),
	))
}

func ValidateSearch(ctx context.Context, request domain.SearchRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Query, validation.Required, validation.Length(1, maxTextLength)),
		validation.Field(&request.Types, validation.Each(validation.By(validContentType))),
		validation.Field(&request.Limit, validation.Min(0), validation.Max(MaxSearchLimit)),
		validation.Field(&request.Threshold, validation.Min(-1.0), validation.Max(1.0)),
	))
}

func ValidateSubmitDocument(ctx context.Context, request domain.SubmitDocumentRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&request.Content, validation.Required, validation.Length(1, maxTextLength)),
		validation.Field(&request.Format, validation.In(domain.DocumentFormatText, domain.DocumentFormatHTML)),
	))
}

func ValidateSubmitInsight(ctx context.Context, request domain.SubmitInsightRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Description, validation.Required, validation.Length(1, maxTextLength)),
	))
}

func ValidateSubmitJTBD(ctx context.Context, request domain.SubmitJTBDRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Statement, validation.Required, validation.Length(1, maxTextLength)),
	))
}

func ValidateSubmitMetric(ctx context.Context, request domain.SubmitMetricRequest) error {
	return wrap(validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, maxTitleLength)),
	))
}

func validContentType(value interface{}) error {
	s, _ := value.(string)
	if !domain.ContentType(s).IsValid() {
		return fmt.Errorf("must be one of document, insight, jtbd, metric")
	}
	return nil
}
