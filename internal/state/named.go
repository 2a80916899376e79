package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type decodeFunc func(payload []byte) (Mutation, error)

var decoders = map[string]decodeFunc{
	MutationClear:                 noPayload(Clear{}),
	MutationClearUser:             noPayload(ClearUser{}),
	MutationToggleNewProjectPopup: noPayload(ToggleNewProjectPopup{}),
	MutationSetCreditCards: func(payload []byte) (Mutation, error) {
		var cards []domain.CreditCard
		if err := decodeStrict(payload, &cards); err != nil {
			return nil, err
		}
		return SetCreditCards{Cards: cards}, nil
	},
	MutationSetPaymentsHistory: func(payload []byte) (Mutation, error) {
		var items []domain.PaymentsHistoryItem
		if err := decodeStrict(payload, &items); err != nil {
			return nil, err
		}
		return SetPaymentsHistory{Items: items}, nil
	},
	MutationSetProjects: func(payload []byte) (Mutation, error) {
		var projects []domain.Project
		if err := decodeStrict(payload, &projects); err != nil {
			return nil, err
		}
		return SetProjects{Projects: projects}, nil
	},
	MutationSetBalance: func(payload []byte) (Mutation, error) {
		var body struct {
			Coins   *decimal.Decimal `json:"coins"`
			Credits *int64           `json:"credits"`
		}
		if err := decodeStrict(payload, &body); err != nil {
			return nil, err
		}
		if body.Coins == nil || body.Credits == nil {
			return nil, domain.NewValidationError("balance requires coins and credits")
		}
		return SetBalance{Balance: domain.AccountBalance{Coins: *body.Coins, Credits: *body.Credits}}, nil
	},
	MutationSetUser: func(payload []byte) (Mutation, error) {
		var user domain.User
		if err := decodeStrict(payload, &user); err != nil {
			return nil, err
		}
		return SetUser{User: user}, nil
	},
	MutationSelectProject: func(payload []byte) (Mutation, error) {
		var body struct {
			ID *uuid.UUID `json:"id"`
		}
		if err := decodeStrict(payload, &body); err != nil {
			return nil, err
		}
		if body.ID == nil {
			return nil, domain.NewValidationError("id is required")
		}
		return SelectProject{ID: *body.ID}, nil
	},
}

// Decode turns a mutation name and its JSON payload into a Mutation.
// An unregistered name is a configuration error, a malformed payload a
// validation error.
func Decode(name string, payload []byte) (Mutation, error) {
	decode, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMutation, name)
	}
	m, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// CommitNamed decodes and commits a single mutation.
func (c *Container) CommitNamed(name string, payload []byte) error {
	m, err := Decode(name, payload)
	if err != nil {
		return err
	}
	return c.Commit(m)
}

// Names lists every registered mutation name.
func Names() []string {
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	return names
}

func noPayload(m Mutation) decodeFunc {
	return func(payload []byte) (Mutation, error) {
		if !isEmpty(payload) && !bytes.Equal(bytes.TrimSpace(payload), []byte("{}")) {
			return nil, domain.NewValidationError("mutation takes no payload")
		}
		return m, nil
	}
}

func decodeStrict(payload []byte, dst any) error {
	if isEmpty(payload) {
		return domain.NewValidationError("payload is required")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationErrorf("invalid payload: %v", err)
	}
	return nil
}

func isEmpty(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
