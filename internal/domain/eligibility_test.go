package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func completedTransaction(amount int64) PaymentsHistoryItem {
	now := time.Now()
	return PaymentsHistoryItem{
		ID:             "itemId",
		Description:    "test",
		AmountCharged:  decimal.NewFromInt(amount),
		AmountReceived: decimal.NewFromInt(amount),
		Status:         StatusCompleted,
		Link:           "test",
		Start:          now,
		End:            now,
		Type:           TypeTransaction,
	}
}

func TestEligibility_EmptyState(t *testing.T) {
	rule := DefaultEligibilityRule()

	assert.False(t, rule.Allows(PaymentsState{}))
	assert.Equal(t, Eligibility{}, rule.Explain(PaymentsState{}))
}

func TestEligibility_CreditCard(t *testing.T) {
	rule := DefaultEligibilityRule()
	state := PaymentsState{
		CreditCards: []CreditCard{{ID: "id", ExpMonth: 1, ExpYear: 2000, Brand: "test", LastFour: "0000", IsDefault: true}},
	}

	e := rule.Explain(state)
	assert.True(t, e.CanCreateProject)
	assert.True(t, e.HasCreditCard)
	assert.False(t, e.HasCompletedTransaction)
	assert.False(t, e.HasSufficientBalance)
}

func TestEligibility_CreditCardIgnoresHistoryAndBalance(t *testing.T) {
	rule := DefaultEligibilityRule()
	rejected := completedTransaction(10)
	rejected.Status = StatusRejected
	state := PaymentsState{
		CreditCards: []CreditCard{{ID: "id", ExpMonth: 1, ExpYear: 2000, LastFour: "0000"}},
		History:     []PaymentsHistoryItem{rejected},
		Balance:     AccountBalance{Coins: decimal.NewFromInt(-5)},
	}

	assert.True(t, rule.Allows(state))
}

func TestEligibility_CompletedTransactionAtThreshold(t *testing.T) {
	rule := DefaultEligibilityRule()
	state := PaymentsState{History: []PaymentsHistoryItem{completedTransaction(50)}}

	e := rule.Explain(state)
	assert.True(t, e.CanCreateProject)
	assert.True(t, e.HasCompletedTransaction)
}

func TestEligibility_TransactionBelowThreshold(t *testing.T) {
	rule := DefaultEligibilityRule()
	state := PaymentsState{History: []PaymentsHistoryItem{completedTransaction(49)}}

	assert.False(t, rule.Allows(state))
}

func TestEligibility_PendingTransactionDoesNotQualify(t *testing.T) {
	rule := DefaultEligibilityRule()
	for _, status := range []PaymentsHistoryItemStatus{StatusPending, StatusRejected, StatusCancelled, StatusPaid} {
		item := completedTransaction(100)
		item.Status = status
		assert.False(t, rule.Allows(PaymentsState{History: []PaymentsHistoryItem{item}}), status)
	}
}

func TestEligibility_TransactionUsesReceivedAmount(t *testing.T) {
	rule := DefaultEligibilityRule()
	item := completedTransaction(0)
	item.AmountCharged = decimal.NewFromInt(100)
	item.AmountReceived = decimal.NewFromInt(10)

	assert.False(t, rule.Allows(PaymentsState{History: []PaymentsHistoryItem{item}}))
}

func TestEligibility_Balance(t *testing.T) {
	rule := DefaultEligibilityRule()

	tests := []struct {
		name    string
		balance AccountBalance
		want    bool
	}{
		{"zero", AccountBalance{}, false},
		{"coins below", AccountBalance{Coins: decimal.RequireFromString("49.99")}, false},
		{"coins at threshold", AccountBalance{Coins: decimal.NewFromInt(50)}, true},
		{"credits in cents", AccountBalance{Credits: 5000}, true},
		{"coins plus credits", AccountBalance{Coins: decimal.NewFromInt(25), Credits: 2500}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Allows(PaymentsState{Balance: tt.balance}))
		})
	}
}

func TestEligibility_ZeroMinBalanceDisablesBalanceCheck(t *testing.T) {
	rule := EligibilityRule{MinTransaction: decimal.NewFromInt(50)}

	assert.False(t, rule.Allows(PaymentsState{}))
	assert.False(t, rule.Allows(PaymentsState{Balance: AccountBalance{Coins: decimal.NewFromInt(1000)}}))
}

func TestEligibility_Idempotent(t *testing.T) {
	rule := DefaultEligibilityRule()
	state := PaymentsState{
		History: []PaymentsHistoryItem{completedTransaction(50)},
		Balance: AccountBalance{Credits: 5000},
	}

	first := rule.Explain(state)
	second := rule.Explain(state)
	assert.Equal(t, first, second)
	assert.Len(t, state.History, 1)
}

func TestAccountBalance_Sum(t *testing.T) {
	b := AccountBalance{Coins: decimal.RequireFromString("1.50"), Credits: 250}

	assert.True(t, decimal.NewFromInt(4).Equal(b.Sum()), b.Sum().String())
}
