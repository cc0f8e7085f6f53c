package error

import (
	"fmt"
	"net/http"
)

// BudgetExceededError is returned when a selection does not fit in the
// remaining token budget. It is an anticipated outcome, not a fault: the
// context is left exactly as it was before the call.
type BudgetExceededError struct {
	ItemTokens      int    `json:"item_tokens"`
	CurrentTokens   int    `json:"current_tokens"`
	TokensAvailable int    `json:"tokens_available"`
	Suggestion      string `json:"suggestion"`
}

func (err *BudgetExceededError) Error() string {
	return fmt.Sprintf("token budget exceeded: item needs %d tokens, %d of budget in use, %d available",
		err.ItemTokens, err.CurrentTokens, err.TokensAvailable)
}

func (err *BudgetExceededError) ErrCode() string {
	return "BUDGET_EXCEEDED"
}

func (err *BudgetExceededError) StatusCode() int {
	return http.StatusConflict
}
