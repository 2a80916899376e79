package state

import "github.com/azizikri/project-eligibility/internal/domain"

// PaymentsOf returns a copy of the payments slice.
func PaymentsOf(s *State) domain.PaymentsState {
	return domain.PaymentsState{
		CreditCards: append([]domain.CreditCard(nil), s.Payments.CreditCards...),
		History:     append([]domain.PaymentsHistoryItem(nil), s.Payments.History...),
		Balance:     s.Payments.Balance,
	}
}

func CurrentUser(s *State) domain.User {
	return s.Users.User
}

// ProjectsOf returns a copy of the loaded projects.
func ProjectsOf(s *State) []domain.Project {
	return append([]domain.Project(nil), s.Projects.Projects...)
}

func CanCreateProject(rule domain.EligibilityRule) func(*State) bool {
	return func(s *State) bool {
		return rule.Allows(s.Payments)
	}
}

func ExplainEligibility(rule domain.EligibilityRule) func(*State) domain.Eligibility {
	return func(s *State) domain.Eligibility {
		return rule.Explain(s.Payments)
	}
}

// NewProjectButtonVisible reports whether the header offers "create project":
// the user must be eligible and below their project limit. A limit of zero
// means no limit.
func NewProjectButtonVisible(rule domain.EligibilityRule) func(*State) bool {
	return func(s *State) bool {
		if !rule.Allows(s.Payments) {
			return false
		}
		limit := s.Users.User.ProjectLimit
		return limit == 0 || s.Projects.OwnedBy(s.Users.User.ID) < limit
	}
}

func SelectedProject(s *State) (domain.Project, bool) {
	return s.Projects.Find(s.Projects.SelectedID)
}

func NewProjectPopupShown(s *State) bool {
	return s.App.NewProjectPopupShown
}
