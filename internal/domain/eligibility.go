package domain

import "github.com/shopspring/decimal"

// EligibilityRule decides whether a user may create a project from the
// payments slice alone. A user qualifies through any one of a credit card, a
// completed payment of at least MinTransaction, or a balance of at least
// MinBalance.
type EligibilityRule struct {
	// MinTransaction is the smallest completed payment that qualifies.
	MinTransaction decimal.Decimal
	// MinBalance is the smallest balance, in dollars, that qualifies.
	// Zero disables the balance check.
	MinBalance decimal.Decimal
}

func DefaultEligibilityRule() EligibilityRule {
	return EligibilityRule{
		MinTransaction: decimal.NewFromInt(50),
		MinBalance:     decimal.NewFromInt(50),
	}
}

// Eligibility is the rule's verdict together with the conditions that held.
type Eligibility struct {
	CanCreateProject        bool `json:"can_create_project"`
	HasCreditCard           bool `json:"has_credit_card"`
	HasCompletedTransaction bool `json:"has_completed_transaction"`
	HasSufficientBalance    bool `json:"has_sufficient_balance"`
}

func (r EligibilityRule) Allows(p PaymentsState) bool {
	return r.Explain(p).CanCreateProject
}

func (r EligibilityRule) Explain(p PaymentsState) Eligibility {
	e := Eligibility{
		HasCreditCard:           len(p.CreditCards) > 0,
		HasCompletedTransaction: r.hasCompletedTransaction(p.History),
		HasSufficientBalance:    r.MinBalance.IsPositive() && p.Balance.Sum().GreaterThanOrEqual(r.MinBalance),
	}
	e.CanCreateProject = e.HasCreditCard || e.HasCompletedTransaction || e.HasSufficientBalance
	return e
}

func (r EligibilityRule) hasCompletedTransaction(history []PaymentsHistoryItem) bool {
	for _, item := range history {
		if item.Status == StatusCompleted && item.Amount().GreaterThanOrEqual(r.MinTransaction) {
			return true
		}
	}
	return false
}
