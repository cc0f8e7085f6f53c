package application

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/research/tokenizer"
)

const (
	DefaultMaxTokens   = 8000
	DefaultTokenBuffer = 1000
)

// ContextManager holds the insights, JTBDs and metrics selected for a
// generation request and keeps their combined token cost within a single
// budget. All methods are safe for concurrent use; each runs under one lock
// so the check-then-append in AddSelection cannot interleave with another
// mutation.
type ContextManager struct {
	mu          sync.Mutex
	counter     tokenizer.Counter
	maxTokens   int
	tokenBuffer int

	insights []domain.Insight
	jtbds    []domain.JTBD
	metrics  []domain.Metric
}

// NewContextManager creates an empty selection. counter may be nil, in which
// case the character approximation is used.
func NewContextManager(counter tokenizer.Counter, maxTokens, tokenBuffer int) *ContextManager {
	if counter == nil {
		counter = tokenizer.NewFallbackCounter()
	}
	return &ContextManager{
		counter:     counter,
		maxTokens:   maxTokens,
		tokenBuffer: tokenBuffer,
	}
}

// SetLimits reconfigures the budget. Existing selections are kept even if
// they no longer fit; CheckTokenBudget reports that as NeedsTruncation.
func (m *ContextManager) SetLimits(maxTokens, tokenBuffer int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxTokens = maxTokens
	m.tokenBuffer = tokenBuffer
}

// EffectiveLimit is max_tokens minus the reserved buffer, never below 100.
func (m *ContextManager) EffectiveLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effectiveLimit()
}

func (m *ContextManager) effectiveLimit() int {
	limit := m.maxTokens - m.tokenBuffer
	if limit < domain.MinEffectiveLimit {
		return domain.MinEffectiveLimit
	}
	return limit
}

// CalculateItemTokens returns the token cost of item when selected as itemType.
func (m *ContextManager) CalculateItemTokens(item domain.ContextItem, itemType domain.ItemType) int {
	if item == nil || !itemType.IsValid() {
		return 0
	}
	return m.counter.CountTokens(item.TokenText())
}

func (m *ContextManager) AddSelection(itemType domain.ItemType, item domain.ContextItem) (domain.SelectionResult, error) {
	if !itemType.IsValid() {
		return domain.SelectionResult{}, pkgError.ValidationError(fmt.Sprintf("invalid item type %q", itemType))
	}
	if item == nil {
		return domain.SelectionResult{}, pkgError.ValidationError("item is required")
	}
	if item.ItemType() != itemType {
		return domain.SelectionResult{}, pkgError.ValidationError(fmt.Sprintf("item is a %s, not a %s", item.ItemType(), itemType))
	}
	itemID := strings.TrimSpace(item.ItemID())
	if itemID == "" {
		return domain.SelectionResult{}, pkgError.ValidationError(fmt.Sprintf("%s id is required", itemType))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	limit := m.effectiveLimit()

	if m.containsLocked(itemType, item.ItemID()) {
		current := m.totalTokensLocked()
		return domain.SelectionResult{
			Message:         fmt.Sprintf("%s %s is already selected", itemType, item.ItemID()),
			ItemType:        itemType,
			ItemID:          item.ItemID(),
			AlreadySelected: true,
			TotalTokens:     current,
			TokensAvailable: available(limit, current),
		}, nil
	}

	itemTokens := m.CalculateItemTokens(item, itemType)
	current := m.totalTokensLocked()

	if current+itemTokens > limit {
		logrus.WithFields(logrus.Fields{
			"item_type":      itemType,
			"item_id":        item.ItemID(),
			"item_tokens":    itemTokens,
			"current_tokens": current,
			"limit":          limit,
		}).Debug("[CONTEXT] Selection rejected, budget exceeded")

		return domain.SelectionResult{}, &pkgError.BudgetExceededError{
			ItemTokens:      itemTokens,
			CurrentTokens:   current,
			TokensAvailable: limit - current,
			Suggestion:      "Remove some selected items or truncate the context to free space",
		}
	}

	switch v := item.Clone().(type) {
	case domain.Insight:
		m.insights = append(m.insights, v)
	case domain.JTBD:
		m.jtbds = append(m.jtbds, v)
	case domain.Metric:
		m.metrics = append(m.metrics, v)
	}

	total := current + itemTokens
	logrus.Debugf("[CONTEXT] Selected %s %s (%d tokens, %d/%d used)", itemType, item.ItemID(), itemTokens, total, limit)

	return domain.SelectionResult{
		Message:         fmt.Sprintf("%s %s added to context", itemType, item.ItemID()),
		ItemType:        itemType,
		ItemID:          item.ItemID(),
		ItemTokens:      itemTokens,
		TotalTokens:     total,
		TokensAvailable: available(limit, total),
	}, nil
}

func (m *ContextManager) RemoveSelection(itemType domain.ItemType, itemID string) (domain.SelectionResult, error) {
	if !itemType.IsValid() {
		return domain.SelectionResult{}, pkgError.ValidationError(fmt.Sprintf("invalid item type %q", itemType))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed bool
	switch itemType {
	case domain.ItemTypeInsight:
		m.insights, removed = removeByID(m.insights, itemID)
	case domain.ItemTypeJTBD:
		m.jtbds, removed = removeByID(m.jtbds, itemID)
	case domain.ItemTypeMetric:
		m.metrics, removed = removeByID(m.metrics, itemID)
	}
	if !removed {
		return domain.SelectionResult{}, pkgError.NotFoundError(fmt.Sprintf("%s %s is not selected", itemType, itemID))
	}

	total := m.totalTokensLocked()
	return domain.SelectionResult{
		Message:         fmt.Sprintf("%s %s removed from context", itemType, itemID),
		ItemType:        itemType,
		ItemID:          itemID,
		TotalTokens:     total,
		TokensAvailable: available(m.effectiveLimit(), total),
	}, nil
}

// ClearSelection empties the collection for itemType, or all three when
// itemType is empty.
func (m *ContextManager) ClearSelection(itemType domain.ItemType) (domain.SelectionResult, error) {
	if itemType != "" && !itemType.IsValid() {
		return domain.SelectionResult{}, pkgError.ValidationError(fmt.Sprintf("invalid item type %q", itemType))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	msg := "all selections cleared"
	switch itemType {
	case domain.ItemTypeInsight:
		m.insights = nil
		msg = "insight selections cleared"
	case domain.ItemTypeJTBD:
		m.jtbds = nil
		msg = "jtbd selections cleared"
	case domain.ItemTypeMetric:
		m.metrics = nil
		msg = "metric selections cleared"
	default:
		m.insights, m.jtbds, m.metrics = nil, nil, nil
	}

	total := m.totalTokensLocked()
	return domain.SelectionResult{
		Message:         msg,
		ItemType:        itemType,
		TotalTokens:     total,
		TokensAvailable: available(m.effectiveLimit(), total),
	}, nil
}

func (m *ContextManager) IsSelected(itemType domain.ItemType, itemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.containsLocked(itemType, itemID)
}

func (m *ContextManager) GetContextSummary() domain.ContextSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := domain.ContextSummary{
		Insights:         domain.CollectionSummary{Count: len(m.insights), Tokens: sumTokens(m, m.insights)},
		JTBDs:            domain.CollectionSummary{Count: len(m.jtbds), Tokens: sumTokens(m, m.jtbds)},
		Metrics:          domain.CollectionSummary{Count: len(m.metrics), Tokens: sumTokens(m, m.metrics)},
		SelectedInsights: append([]domain.Insight{}, m.insights...),
		SelectedJTBDs:    append([]domain.JTBD{}, m.jtbds...),
		SelectedMetrics:  make([]domain.Metric, 0, len(m.metrics)),
	}
	for _, metric := range m.metrics {
		summary.SelectedMetrics = append(summary.SelectedMetrics, metric.Clone().(domain.Metric))
	}

	limit := m.effectiveLimit()
	total := summary.Insights.Tokens + summary.JTBDs.Tokens + summary.Metrics.Tokens
	summary.TokenBudget = domain.TokenBudgetView{
		TotalUsed:      total,
		TotalAvailable: available(limit, total),
		MaxLimit:       limit,
		BufferReserved: m.tokenBuffer,
		PercentageUsed: percentage(total, limit),
	}
	return summary
}

// GetTotalTokens recomputes the cost of every selected item.
func (m *ContextManager) GetTotalTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalTokensLocked()
}

func (m *ContextManager) GetAvailableTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return available(m.effectiveLimit(), m.totalTokensLocked())
}

func (m *ContextManager) CheckTokenBudget() domain.BudgetStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := m.effectiveLimit()
	total := m.totalTokensLocked()
	pct := 100 * float64(total) / float64(limit)

	status := domain.BudgetGood
	switch {
	case pct > 90:
		status = domain.BudgetCritical
	case pct > 75:
		status = domain.BudgetWarning
	case pct > 50:
		status = domain.BudgetCaution
	}

	return domain.BudgetStatus{
		Status:          status,
		PercentageUsed:  round1(pct),
		TotalUsed:       total,
		EffectiveLimit:  limit,
		TokensAvailable: available(limit, total),
		NeedsTruncation: total > limit,
		Recommendations: recommendations(status),
	}
}

// TruncateIfNeeded drops selections until the total is at most
// targetPercentage of the effective limit. Metrics go first, then insights,
// then JTBDs; within a type the most recently added item goes first. It
// stops as soon as the target is met. A non-positive target uses the default.
func (m *ContextManager) TruncateIfNeeded(targetPercentage float64) domain.TruncationResult {
	if targetPercentage <= 0 {
		targetPercentage = domain.DefaultTruncateTarget
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	limit := m.effectiveLimit()
	target := int(float64(limit) * targetPercentage / 100)
	before := m.totalTokensLocked()

	result := domain.TruncationResult{
		TargetTokens:  target,
		TokensBefore:  before,
		TokensAfter:   before,
		TargetPercent: targetPercentage,
	}
	if before <= target {
		return result
	}

	current := before
drain:
	for current > target {
		switch {
		case len(m.metrics) > 0:
			last := m.metrics[len(m.metrics)-1]
			m.metrics = m.metrics[:len(m.metrics)-1]
			current -= m.counter.CountTokens(last.TokenText())
			result.RemovedMetrics++
		case len(m.insights) > 0:
			last := m.insights[len(m.insights)-1]
			m.insights = m.insights[:len(m.insights)-1]
			current -= m.counter.CountTokens(last.TokenText())
			result.RemovedInsights++
		case len(m.jtbds) > 0:
			last := m.jtbds[len(m.jtbds)-1]
			m.jtbds = m.jtbds[:len(m.jtbds)-1]
			current -= m.counter.CountTokens(last.TokenText())
			result.RemovedJTBDs++
		default:
			break drain
		}
	}

	result.Truncated = result.RemovedTotal() > 0
	result.TokensAfter = m.totalTokensLocked()

	logrus.WithFields(logrus.Fields{
		"tokens_before":    result.TokensBefore,
		"tokens_after":     result.TokensAfter,
		"target_tokens":    result.TargetTokens,
		"removed_metrics":  result.RemovedMetrics,
		"removed_insights": result.RemovedInsights,
		"removed_jtbds":    result.RemovedJTBDs,
	}).Info("[CONTEXT] Context truncated")

	return result
}

// BuildPromptContext renders the selection as labelled sections for the
// downstream generator. Sections with no items are omitted.
func (m *ContextManager) BuildPromptContext() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	if len(m.jtbds) > 0 {
		b.WriteString("JOBS TO BE DONE:\n")
		for i, j := range m.jtbds {
			fmt.Fprintf(&b, "%d. %s\n", i+1, j.TokenText())
		}
	}
	if len(m.insights) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("CUSTOMER INSIGHTS:\n")
		for i, in := range m.insights {
			fmt.Fprintf(&b, "%d. %s\n", i+1, in.TokenText())
		}
	}
	if len(m.metrics) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("METRICS:\n")
		for i, mt := range m.metrics {
			fmt.Fprintf(&b, "%d. %s\n", i+1, mt.TokenText())
		}
	}
	return b.String()
}

func (m *ContextManager) containsLocked(itemType domain.ItemType, itemID string) bool {
	switch itemType {
	case domain.ItemTypeInsight:
		return indexByID(m.insights, itemID) >= 0
	case domain.ItemTypeJTBD:
		return indexByID(m.jtbds, itemID) >= 0
	case domain.ItemTypeMetric:
		return indexByID(m.metrics, itemID) >= 0
	}
	return false
}

func (m *ContextManager) totalTokensLocked() int {
	return sumTokens(m, m.insights) + sumTokens(m, m.jtbds) + sumTokens(m, m.metrics)
}

func sumTokens[T domain.ContextItem](m *ContextManager, items []T) int {
	total := 0
	for _, item := range items {
		total += m.counter.CountTokens(item.TokenText())
	}
	return total
}

func indexByID[T domain.ContextItem](items []T, id string) int {
	for i, item := range items {
		if item.ItemID() == id {
			return i
		}
	}
	return -1
}

func removeByID[T domain.ContextItem](items []T, id string) ([]T, bool) {
	idx := indexByID(items, id)
	if idx < 0 {
		return items, false
	}
	return append(items[:idx:idx], items[idx+1:]...), true
}

func available(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}

func percentage(used, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return round1(100 * float64(used) / float64(limit))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func recommendations(status domain.BudgetStatusLevel) []string {
	switch status {
	case domain.BudgetCritical:
		return []string{
			"Context is almost full: remove low-priority items before adding more",
			"Run truncation to bring usage back under 75%",
			"Prefer shorter insights or drop metrics that are not essential",
		}
	case domain.BudgetWarning:
		return []string{
			"Context is getting full: review selected items for relevance",
			"Consider removing metrics first, they add the least to the discussion",
		}
	case domain.BudgetCaution:
		return []string{
			"Over half of the budget is used: keep new selections focused",
		}
	}
	return []string{"Plenty of room left for more insights, JTBDs and metrics"}
}
