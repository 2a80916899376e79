package domain

import "github.com/google/uuid"

func (c CreditCard) Validate() error {
	var errs ValidationErrors
	if c.ID == "" {
		errs.Add(NewValidationError("id is required"))
	}
	if c.ExpMonth < 1 || c.ExpMonth > 12 {
		errs.Add(NewValidationErrorf("expMonth must be 1-12, got %d", c.ExpMonth))
	}
	if c.ExpYear <= 0 {
		errs.Add(NewValidationErrorf("expYear must be positive, got %d", c.ExpYear))
	}
	if !isFourDigits(c.LastFour) {
		errs.Add(NewValidationErrorf("last4 must be four digits, got %q", c.LastFour))
	}
	return errs.Err()
}

func (i PaymentsHistoryItem) Validate() error {
	var errs ValidationErrors
	if i.ID == "" {
		errs.Add(NewValidationError("id is required"))
	}
	if !i.Status.Valid() {
		errs.Add(NewValidationErrorf("unknown status %q", i.Status))
	}
	if !i.Type.Valid() {
		errs.Add(NewValidationErrorf("unknown type %q", i.Type))
	}
	if i.AmountCharged.IsNegative() || i.AmountReceived.IsNegative() {
		errs.Add(NewValidationError("amounts must not be negative"))
	}
	if !i.Start.IsZero() && !i.End.IsZero() && i.End.Before(i.Start) {
		errs.Add(NewValidationError("end is before start"))
	}
	return errs.Err()
}

func (b AccountBalance) Validate() error {
	var errs ValidationErrors
	if b.Coins.IsNegative() {
		errs.Add(NewValidationErrorf("coins must not be negative, got %s", b.Coins))
	}
	if b.Credits < 0 {
		errs.Add(NewValidationErrorf("credits must not be negative, got %d", b.Credits))
	}
	return errs.Err()
}

func (u User) Validate() error {
	var errs ValidationErrors
	if u.ID == uuid.Nil {
		errs.Add(NewValidationError("id is required"))
	}
	if u.Email == "" {
		errs.Add(NewValidationError("email is required"))
	}
	if u.ProjectLimit < 0 {
		errs.Add(NewValidationErrorf("projectLimit must not be negative, got %d", u.ProjectLimit))
	}
	return errs.Err()
}

func (p Project) Validate() error {
	var errs ValidationErrors
	if p.ID == uuid.Nil {
		errs.Add(NewValidationError("id is required"))
	}
	if p.Name == "" {
		errs.Add(NewValidationError("name is required"))
	}
	return errs.Err()
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
