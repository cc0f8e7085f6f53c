package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
)

// ItemType distinguishes the variants of ContextItem.
type ItemType string

const (
	ItemTypeInsight ItemType = "insight"
	ItemTypeJTBD    ItemType = "jtbd"
	ItemTypeMetric  ItemType = "metric"
)

// ItemTypes lists the selectable types in display order.
var ItemTypes = []ItemType{ItemTypeInsight, ItemTypeJTBD, ItemTypeMetric}

func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeInsight, ItemTypeJTBD, ItemTypeMetric:
		return true
	}
	return false
}

// ParseItemType accepts the canonical names plus the plural forms used by
// the UI ("insights", "jtbds", "metrics").
func ParseItemType(raw string) (ItemType, error) {
	t := ItemType(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "s"))
	if !t.IsValid() {
		return "", pkgError.ValidationError(fmt.Sprintf("invalid item type %q: must be one of insight, jtbd, metric", raw))
	}
	return t, nil
}

// ContextItem is one selectable piece of research content.
type ContextItem interface {
	ItemID() string
	ItemType() ItemType
	// TokenText is the exact text whose token count is the item's cost.
	TokenText() string
	// Clone returns a copy that shares no memory with the receiver.
	Clone() ContextItem
}

type Insight struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Context     string `json:"context,omitempty"`
}

func (i Insight) ItemID() string     { return i.ID }
func (i Insight) ItemType() ItemType { return ItemTypeInsight }
func (i Insight) Clone() ContextItem { return i }

func (i Insight) TokenText() string {
	text := i.Description
	if i.Context != "" {
		text += " Context: " + i.Context
	}
	return text
}

type JTBD struct {
	ID        string `json:"id"`
	Statement string `json:"statement"`
	Context   string `json:"context,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
}

func (j JTBD) ItemID() string     { return j.ID }
func (j JTBD) ItemType() ItemType { return ItemTypeJTBD }
func (j JTBD) Clone() ContextItem { return j }

func (j JTBD) TokenText() string {
	text := j.Statement
	if j.Context != "" {
		text += " Context: " + j.Context
	}
	if j.Outcome != "" {
		text += " Outcome: " + j.Outcome
	}
	return text
}

type Metric struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	CurrentValue *float64 `json:"current_value,omitempty"`
	TargetValue  *float64 `json:"target_value,omitempty"`
}

func (m Metric) ItemID() string     { return m.ID }
func (m Metric) ItemType() ItemType { return ItemTypeMetric }

func (m Metric) Clone() ContextItem {
	return m.clone()
}

func (m Metric) clone() Metric {
	cpy := m
	if m.CurrentValue != nil {
		v := *m.CurrentValue
		cpy.CurrentValue = &v
	}
	if m.TargetValue != nil {
		v := *m.TargetValue
		cpy.TargetValue = &v
	}
	return cpy
}

func (m Metric) TokenText() string {
	text := m.Name
	if m.Description != "" {
		text += " Description: " + m.Description
	}
	if m.CurrentValue != nil {
		text += " Current: " + FormatNumber(*m.CurrentValue)
	}
	if m.TargetValue != nil {
		text += " Target: " + FormatNumber(*m.TargetValue)
	}
	return text
}

// FormatNumber renders a metric value in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float is a convenience for building optional metric values.
func Float(v float64) *float64 {
	return &v
}

// DecodeItem builds the variant named by itemType from a JSON object.
// It only checks the shape; field rules live in the validations package.
func DecodeItem(itemType ItemType, raw []byte) (ContextItem, error) {
	var (
		item ContextItem
		err  error
	)
	switch itemType {
	case ItemTypeInsight:
		var v Insight
		err = json.Unmarshal(raw, &v)
		item = v
	case ItemTypeJTBD:
		var v JTBD
		err = json.Unmarshal(raw, &v)
		item = v
	case ItemTypeMetric:
		var v Metric
		err = json.Unmarshal(raw, &v)
		item = v
	default:
		return nil, pkgError.ValidationError(fmt.Sprintf("invalid item type %q", itemType))
	}
	if err != nil {
		return nil, pkgError.ValidationError(fmt.Sprintf("invalid %s payload: %v", itemType, err))
	}
	return item, nil
}
