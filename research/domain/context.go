package domain

// BudgetStatusLevel classifies how full the context is.
type BudgetStatusLevel string

const (
	BudgetGood     BudgetStatusLevel = "good"
	BudgetCaution  BudgetStatusLevel = "caution"
	BudgetWarning  BudgetStatusLevel = "warning"
	BudgetCritical BudgetStatusLevel = "critical"
)

const (
	// MinEffectiveLimit is the floor applied to max_tokens - token_buffer.
	MinEffectiveLimit = 100
	// DefaultTruncateTarget is the percentage TruncateIfNeeded aims for.
	DefaultTruncateTarget = 75.0
)

// SelectionResult reports totals after a successful add, remove or clear.
type SelectionResult struct {
	Message         string   `json:"message"`
	ItemType        ItemType `json:"item_type,omitempty"`
	ItemID          string   `json:"item_id,omitempty"`
	ItemTokens      int      `json:"item_tokens,omitempty"`
	AlreadySelected bool     `json:"already_selected,omitempty"`
	TotalTokens     int      `json:"total_tokens"`
	TokensAvailable int      `json:"tokens_available"`
}

type CollectionSummary struct {
	Count  int `json:"count"`
	Tokens int `json:"tokens"`
}

type TokenBudgetView struct {
	TotalUsed      int     `json:"total_used"`
	TotalAvailable int     `json:"total_available"`
	MaxLimit       int     `json:"max_limit"`
	BufferReserved int     `json:"buffer_reserved"`
	PercentageUsed float64 `json:"percentage_used"`
}

// ContextSummary is a detached snapshot of the selection. Mutating it has
// no effect on the manager it came from.
type ContextSummary struct {
	Insights         CollectionSummary `json:"insights"`
	JTBDs            CollectionSummary `json:"jtbds"`
	Metrics          CollectionSummary `json:"metrics"`
	TokenBudget      TokenBudgetView   `json:"token_budget"`
	SelectedInsights []Insight         `json:"selected_insights"`
	SelectedJTBDs    []JTBD            `json:"selected_jtbds"`
	SelectedMetrics  []Metric          `json:"selected_metrics"`
}

type BudgetStatus struct {
	Status          BudgetStatusLevel `json:"status"`
	PercentageUsed  float64           `json:"percentage_used"`
	TotalUsed       int               `json:"total_used"`
	EffectiveLimit  int               `json:"effective_limit"`
	TokensAvailable int               `json:"tokens_available"`
	NeedsTruncation bool              `json:"needs_truncation"`
	Recommendations []string          `json:"recommendations"`
}

type TruncationResult struct {
	Truncated       bool    `json:"truncated"`
	TargetTokens    int     `json:"target_tokens"`
	TokensBefore    int     `json:"tokens_before"`
	TokensAfter     int     `json:"tokens_after"`
	RemovedInsights int     `json:"removed_insights"`
	RemovedJTBDs    int     `json:"removed_jtbds"`
	RemovedMetrics  int     `json:"removed_metrics"`
	TargetPercent   float64 `json:"target_percentage"`
}

func (r TruncationResult) RemovedTotal() int {
	return r.RemovedInsights + r.RemovedJTBDs + r.RemovedMetrics
}

// IContextManager is the selection surface consumed by the REST and MCP layers.
type IContextManager interface {
	AddSelection(itemType ItemType, item ContextItem) (SelectionResult, error)
	RemoveSelection(itemType ItemType, itemID string) (SelectionResult, error)
	ClearSelection(itemType ItemType) (SelectionResult, error)
	GetContextSummary() ContextSummary
	GetTotalTokens() int
	GetAvailableTokens() int
	CheckTokenBudget() BudgetStatus
	TruncateIfNeeded(targetPercentage float64) TruncationResult
	BuildPromptContext() string

	IsSelected(itemType ItemType, itemID string) bool
	SetLimits(maxTokens, tokenBuffer int)
}
