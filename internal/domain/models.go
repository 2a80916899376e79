package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownMutation = errors.New("unknown mutation")
	ErrUserNotFound    = errors.New("user not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrNotEligible     = errors.New("user may not create a project")
)

// CreditCard is a card attached to the user's billing account.
type CreditCard struct {
	ID        string `json:"id"`
	ExpMonth  int    `json:"expMonth"`
	ExpYear   int    `json:"expYear"`
	Brand     string `json:"brand"`
	LastFour  string `json:"last4"`
	IsDefault bool   `json:"isDefault"`
}

type PaymentsHistoryItemStatus string

const (
	StatusPending   PaymentsHistoryItemStatus = "pending"
	StatusCompleted PaymentsHistoryItemStatus = "completed"
	StatusRejected  PaymentsHistoryItemStatus = "rejected"
	StatusPaid      PaymentsHistoryItemStatus = "paid"
	StatusCancelled PaymentsHistoryItemStatus = "cancelled"
)

func (s PaymentsHistoryItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRejected, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

type PaymentsHistoryItemType string

const (
	TypeTransaction  PaymentsHistoryItemType = "transaction"
	TypeCharge       PaymentsHistoryItemType = "charge"
	TypeCoupon       PaymentsHistoryItemType = "coupon"
	TypeDepositBonus PaymentsHistoryItemType = "depositBonus"
)

func (t PaymentsHistoryItemType) Valid() bool {
	switch t {
	case TypeTransaction, TypeCharge, TypeCoupon, TypeDepositBonus:
		return true
	}
	return false
}

// PaymentsHistoryItem is one entry of the billing history: a token
// transaction, an invoice charge or an applied coupon.
type PaymentsHistoryItem struct {
	ID             string                    `json:"id"`
	Description    string                    `json:"description"`
	AmountCharged  decimal.Decimal           `json:"amountCharged"`
	AmountReceived decimal.Decimal           `json:"amountReceived"`
	Status         PaymentsHistoryItemStatus `json:"status"`
	Link           string                    `json:"link"`
	Start          time.Time                 `json:"start"`
	End            time.Time                 `json:"end"`
	Type           PaymentsHistoryItemType   `json:"type"`
}

// UnmarshalJSON accepts "label" as another name for "link" and rejects
// unknown fields.
func (i *PaymentsHistoryItem) UnmarshalJSON(data []byte) error {
	type plain PaymentsHistoryItem
	var aux struct {
		plain
		Label *string `json:"label"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	*i = PaymentsHistoryItem(aux.plain)
	if aux.Label != nil {
		if i.Link != "" && i.Link != *aux.Label {
			return NewValidationError("link and label differ")
		}
		i.Link = *aux.Label
	}
	return nil
}

// Amount is what the item contributed to the account: the received sum for
// transactions, the charged sum for everything else.
func (i PaymentsHistoryItem) Amount() decimal.Decimal {
	if i.Type == TypeTransaction {
		return i.AmountReceived
	}
	return i.AmountCharged
}

// AccountBalance holds token coins (dollars) and stripe credits (cents).
type AccountBalance struct {
	Coins   decimal.Decimal `json:"coins"`
	Credits int64           `json:"credits"`
}

// Sum returns the whole balance in dollars.
func (b AccountBalance) Sum() decimal.Decimal {
	return b.Coins.Add(decimal.New(b.Credits, -2))
}

type PaymentsState struct {
	CreditCards []CreditCard          `json:"creditCards"`
	History     []PaymentsHistoryItem `json:"paymentsHistory"`
	Balance     AccountBalance        `json:"balance"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"fullName"`
	ShortName    string    `json:"shortName"`
	Email        string    `json:"email"`
	ProjectLimit int       `json:"projectLimit"`
}

type UsersState struct {
	User User `json:"user"`
}

type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ProjectsState struct {
	Projects   []Project `json:"projects"`
	SelectedID uuid.UUID `json:"selectedId"`
}

type AppState struct {
	NewProjectPopupShown bool `json:"newProjectPopupShown"`
}

// Find returns the listed project with the given id.
func (p ProjectsState) Find(id uuid.UUID) (Project, bool) {
	if id == uuid.Nil {
		return Project{}, false
	}
	for _, project := range p.Projects {
		if project.ID == id {
			return project, true
		}
	}
	return Project{}, false
}

// OwnedBy counts the listed projects owned by the user.
func (p ProjectsState) OwnedBy(userID uuid.UUID) int {
	n := 0
	for _, project := range p.Projects {
		if project.OwnerID == userID {
			n++
		}
	}
	return n
}
