package state

import (
	"fmt"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/google/uuid"
)

const (
	MutationClear                 = "CLEAR"
	MutationSetCreditCards        = "SET_CREDIT_CARDS"
	MutationSetPaymentsHistory    = "SET_PAYMENTS_HISTORY"
	MutationSetBalance            = "SET_BALANCE"
	MutationSetUser               = "SET_USER"
	MutationClearUser             = "CLEAR_USER"
	MutationSetProjects           = "SET_PROJECTS"
	MutationSelectProject         = "SELECT_PROJECT"
	MutationToggleNewProjectPopup = "TOGGLE_NEW_PROJECT_POPUP"
)

// Mutation is a single named state change. The set of mutations is closed:
// only types in this package can implement it.
type Mutation interface {
	Name() string
	Validate() error
	apply(s *State)
}

// checker is implemented by mutations whose precondition depends on the
// state they are applied to.
type checker interface {
	check(s *State) error
}

// Clear resets the payments slice.
type Clear struct{}

func (Clear) Name() string { return MutationClear }
func (Clear) Validate() error { return nil }
func (Clear) apply(s *State) { s.Payments = domain.PaymentsState{} }

type SetCreditCards struct {
	Cards []domain.CreditCard
}

func (SetCreditCards) Name() string { return MutationSetCreditCards }

func (m SetCreditCards) Validate() error {
	var errs domain.ValidationErrors
	for i, card := range m.Cards {
		if err := card.Validate(); err != nil {
			errs.Add(domain.NewIndexedValidationError("creditCards", i, err.Error()))
		}
	}
	return errs.Err()
}

func (m SetCreditCards) apply(s *State) {
	s.Payments.CreditCards = append([]domain.CreditCard(nil), m.Cards...)
}

type SetPaymentsHistory struct {
	Items []domain.PaymentsHistoryItem
}

func (SetPaymentsHistory) Name() string { return MutationSetPaymentsHistory }

func (m SetPaymentsHistory) Validate() error {
	var errs domain.ValidationErrors
	for i, item := range m.Items {
		if err := item.Validate(); err != nil {
			errs.Add(domain.NewIndexedValidationError("paymentsHistory", i, err.Error()))
		}
	}
	return errs.Err()
}

func (m SetPaymentsHistory) apply(s *State) {
	s.Payments.History = append([]domain.PaymentsHistoryItem(nil), m.Items...)
}

type SetBalance struct {
	Balance domain.AccountBalance
}

func (SetBalance) Name() string { return MutationSetBalance }
func (m SetBalance) Validate() error { return m.Balance.Validate() }
func (m SetBalance) apply(s *State) { s.Payments.Balance = m.Balance }

type SetUser struct {
	User domain.User
}

func (SetUser) Name() string { return MutationSetUser }
func (m SetUser) Validate() error { return m.User.Validate() }
func (m SetUser) apply(s *State) { s.Users.User = m.User }

// ClearUser drops the signed-in user.
type ClearUser struct{}

func (ClearUser) Name() string { return MutationClearUser }
func (ClearUser) Validate() error { return nil }
func (ClearUser) apply(s *State) { s.Users = domain.UsersState{} }

// SetProjects replaces the project list. A selection that no longer points
// at a listed project is dropped.
type SetProjects struct {
	Projects []domain.Project
}

func (SetProjects) Name() string { return MutationSetProjects }

func (m SetProjects) Validate() error {
	var errs domain.ValidationErrors
	seen := make(map[uuid.UUID]struct{}, len(m.Projects))
	for i, p := range m.Projects {
		if err := p.Validate(); err != nil {
			errs.Add(domain.NewIndexedValidationError("projects", i, err.Error()))
			continue
		}
		if _, ok := seen[p.ID]; ok {
			errs.Add(domain.NewIndexedValidationError("projects", i, "duplicate id "+p.ID.String()))
		}
		seen[p.ID] = struct{}{}
	}
	return errs.Err()
}

func (m SetProjects) apply(s *State) {
	s.Projects.Projects = append([]domain.Project(nil), m.Projects...)
	if _, ok := s.Projects.Find(s.Projects.SelectedID); !ok {
		s.Projects.SelectedID = uuid.Nil
	}
}

// SelectProject marks a listed project as the current one. uuid.Nil clears
// the selection.
type SelectProject struct {
	ID uuid.UUID
}

func (SelectProject) Name() string { return MutationSelectProject }
func (SelectProject) Validate() error { return nil }

func (m SelectProject) check(s *State) error {
	if m.ID == uuid.Nil {
		return nil
	}
	if _, ok := s.Projects.Find(m.ID); !ok {
		return fmt.Errorf("select project %s: %w", m.ID, domain.ErrProjectNotFound)
	}
	return nil
}

func (m SelectProject) apply(s *State) { s.Projects.SelectedID = m.ID }

type ToggleNewProjectPopup struct{}

func (ToggleNewProjectPopup) Name() string { return MutationToggleNewProjectPopup }
func (ToggleNewProjectPopup) Validate() error { return nil }
func (ToggleNewProjectPopup) apply(s *State) {
	s.App.NewProjectPopupShown = !s.App.NewProjectPopupShown
}
