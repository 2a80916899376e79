package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/azizikri/project-eligibility/internal/repository"
	"github.com/azizikri/project-eligibility/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockQuerier struct {
	getUserFn             func(ctx context.Context, userID uuid.UUID) (domain.User, error)
	listProjectsFn        func(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	listCreditCardsFn     func(ctx context.Context, userID uuid.UUID) ([]domain.CreditCard, error)
	listPaymentsHistoryFn func(ctx context.Context, userID uuid.UUID) ([]domain.PaymentsHistoryItem, error)
	getBalanceFn          func(ctx context.Context, userID uuid.UUID) (domain.AccountBalance, error)
}

func (m *mockQuerier) GetUser(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return domain.User{ID: userID, Email: "user@example.com"}, nil
}

func (m *mockQuerier) ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	if m.listProjectsFn != nil {
		return m.listProjectsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockQuerier) ListCreditCards(ctx context.Context, userID uuid.UUID) ([]domain.CreditCard, error) {
	if m.listCreditCardsFn != nil {
		return m.listCreditCardsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockQuerier) ListPaymentsHistory(ctx context.Context, userID uuid.UUID) ([]domain.PaymentsHistoryItem, error) {
	if m.listPaymentsHistoryFn != nil {
		return m.listPaymentsHistoryFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockQuerier) GetBalance(ctx context.Context, userID uuid.UUID) (domain.AccountBalance, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, userID)
	}
	return domain.AccountBalance{}, nil
}

type mockStore struct {
	mockQuerier
	execTxFn      func(ctx context.Context, fn func(repository.Querier) error) error
	listUserIDsFn func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	if m.execTxFn != nil {
		return m.execTxFn(ctx, fn)
	}
	return fn(&m.mockQuerier)
}

func (m *mockStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.listUserIDsFn != nil {
		return m.listUserIDsFn(ctx)
	}
	return nil, nil
}

func newTestService(store repository.Store) *AccountService {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAccountService(store, domain.DefaultEligibilityRule(), log)
}

func TestEligibility_EmptySession(t *testing.T) {
	svc := newTestService(&mockStore{})

	e := svc.Eligibility(uuid.New())

	assert.False(t, e.CanCreateProject)
}

func TestApply_CreditCard(t *testing.T) {
	svc := newTestService(&mockStore{})
	userID := uuid.New()

	err := svc.Apply(context.Background(), userID, state.MutationSetCreditCards,
		[]byte(`[{"id":"id","expMonth":1,"expYear":2000,"brand":"test","last4":"0000","isDefault":true}]`))
	require.NoError(t, err)

	assert.True(t, svc.Eligibility(userID).CanCreateProject)
	assert.True(t, svc.NewProjectButtonVisible(userID))
	assert.False(t, svc.Eligibility(uuid.New()).CanCreateProject, "sessions are per user")
}

func TestApply_UnknownMutation(t *testing.T) {
	svc := newTestService(&mockStore{})

	err := svc.Apply(context.Background(), uuid.New(), "SET_COUPON", nil)

	assert.True(t, errors.Is(err, domain.ErrUnknownMutation))
}

func TestApply_InvalidPayload(t *testing.T) {
	svc := newTestService(&mockStore{})

	err := svc.Apply(context.Background(), uuid.New(), state.MutationSetBalance, []byte(`{"coins":0}`))

	assert.True(t, domain.IsValidationError(err))
}

func TestSync_Success(t *testing.T) {
	userID := uuid.New()
	store := &mockStore{mockQuerier: mockQuerier{
		listCreditCardsFn: func(ctx context.Context, id uuid.UUID) ([]domain.CreditCard, error) {
			assert.Equal(t, userID, id)
			return []domain.CreditCard{{ID: "card", ExpMonth: 12, ExpYear: 2030, LastFour: "4242"}}, nil
		},
		getBalanceFn: func(ctx context.Context, id uuid.UUID) (domain.AccountBalance, error) {
			return domain.AccountBalance{Coins: decimal.NewFromInt(3), Credits: 100}, nil
		},
		listProjectsFn: func(ctx context.Context, id uuid.UUID) ([]domain.Project, error) {
			return []domain.Project{{ID: uuid.New(), Name: "p", OwnerID: id}}, nil
		},
	}}
	svc := newTestService(store)

	require.NoError(t, svc.Sync(context.Background(), userID))

	c := svc.Session(userID)
	payments := state.Read(c, state.PaymentsOf)
	assert.Len(t, payments.CreditCards, 1)
	assert.Equal(t, int64(100), payments.Balance.Credits)
	assert.Equal(t, userID, state.Read(c, state.CurrentUser).ID)
	assert.Len(t, state.Read(c, state.ProjectsOf), 1)
	assert.True(t, svc.Eligibility(userID).CanCreateProject)
}

func TestSync_ReplacesPreviousPayments(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(&mockStore{})
	require.NoError(t, svc.Apply(context.Background(), userID, state.MutationSetBalance, []byte(`{"coins":100,"credits":0}`)))
	require.True(t, svc.Eligibility(userID).CanCreateProject)

	require.NoError(t, svc.Sync(context.Background(), userID))

	assert.Equal(t, domain.PaymentsState{}, svc.Payments(userID))
	assert.False(t, svc.Eligibility(userID).CanCreateProject)
}

func TestSync_UserNotFound(t *testing.T) {
	store := &mockStore{mockQuerier: mockQuerier{
		getUserFn: func(ctx context.Context, userID uuid.UUID) (domain.User, error) {
			return domain.User{}, domain.ErrUserNotFound
		},
	}}
	svc := newTestService(store)

	err := svc.Sync(context.Background(), uuid.New())

	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestSync_QueryErrorLeavesStateUntouched(t *testing.T) {
	userID := uuid.New()
	store := &mockStore{mockQuerier: mockQuerier{
		listPaymentsHistoryFn: func(ctx context.Context, id uuid.UUID) ([]domain.PaymentsHistoryItem, error) {
			return nil, errors.New("connection reset")
		},
	}}
	svc := newTestService(store)
	require.NoError(t, svc.Apply(context.Background(), userID, state.MutationSetBalance, []byte(`{"coins":100,"credits":0}`)))

	err := svc.Sync(context.Background(), userID)

	require.Error(t, err)
	assert.True(t, svc.Eligibility(userID).HasSufficientBalance)
}

func TestSyncAll_DiscardsMissingUsers(t *testing.T) {
	kept := uuid.New()
	gone := uuid.New()
	deleted := false
	store := &mockStore{mockQuerier: mockQuerier{
		getUserFn: func(ctx context.Context, userID uuid.UUID) (domain.User, error) {
			if userID == gone && deleted {
				return domain.User{}, domain.ErrUserNotFound
			}
			return domain.User{ID: userID, Email: "user@example.com"}, nil
		},
	}}
	svc := newTestService(store)
	require.NoError(t, svc.Sync(context.Background(), kept))
	require.NoError(t, svc.Sync(context.Background(), gone))
	deleted = true

	require.NoError(t, svc.SyncAll(context.Background()))

	assert.Equal(t, []uuid.UUID{kept}, svc.Users())
}

func TestSyncAll_JoinsErrors(t *testing.T) {
	down := false
	store := &mockStore{
		execTxFn: func(ctx context.Context, fn func(repository.Querier) error) error {
			if down {
				return errors.New("db down")
			}
			return fn(&mockQuerier{})
		},
	}
	svc := newTestService(store)
	require.NoError(t, svc.Sync(context.Background(), uuid.New()))
	require.NoError(t, svc.Sync(context.Background(), uuid.New()))
	down = true

	err := svc.SyncAll(context.Background())

	require.Error(t, err)
	assert.Len(t, svc.Users(), 2)
}

func TestSyncAll_LeavesMutationOnlySessions(t *testing.T) {
	var synced []uuid.UUID
	store := &mockStore{mockQuerier: mockQuerier{
		getUserFn: func(ctx context.Context, userID uuid.UUID) (domain.User, error) {
			synced = append(synced, userID)
			return domain.User{}, domain.ErrUserNotFound
		},
	}}
	svc := newTestService(store)
	userID := uuid.New()
	require.NoError(t, svc.Apply(context.Background(), userID, state.MutationSetCreditCards,
		[]byte(`[{"id":"id","expMonth":1,"expYear":2000,"brand":"test","last4":"0000","isDefault":true}]`)))

	require.NoError(t, svc.SyncAll(context.Background()))

	assert.Empty(t, synced)
	assert.Equal(t, []uuid.UUID{userID}, svc.Users())
	assert.True(t, svc.Eligibility(userID).CanCreateProject)
}

func TestSyncAll_DatabaseIsAuthoritativeForSyncedSessions(t *testing.T) {
	svc := newTestService(&mockStore{})
	userID := uuid.New()
	require.NoError(t, svc.Sync(context.Background(), userID))
	require.NoError(t, svc.Apply(context.Background(), userID, state.MutationSetBalance, []byte(`{"coins":100,"credits":0}`)))
	require.True(t, svc.Eligibility(userID).CanCreateProject)

	require.NoError(t, svc.SyncAll(context.Background()))

	assert.False(t, svc.Eligibility(userID).CanCreateProject)
	assert.Equal(t, []uuid.UUID{userID}, svc.SyncedUsers())
}

func TestReads_DoNotOpenSessions(t *testing.T) {
	svc := newTestService(&mockStore{})

	for i := 0; i < 100; i++ {
		userID := uuid.New()
		assert.False(t, svc.Eligibility(userID).CanCreateProject)
		assert.False(t, svc.NewProjectButtonVisible(userID))
		assert.Equal(t, domain.PaymentsState{}, svc.Payments(userID))
		_, err := svc.ToggleNewProjectPopup(context.Background(), userID)
		assert.True(t, errors.Is(err, domain.ErrNotEligible))
	}

	assert.Empty(t, svc.Users())
}

func TestToggleNewProjectPopup(t *testing.T) {
	svc := newTestService(&mockStore{})
	userID := uuid.New()

	_, err := svc.ToggleNewProjectPopup(context.Background(), userID)
	assert.True(t, errors.Is(err, domain.ErrNotEligible))

	require.NoError(t, svc.Apply(context.Background(), userID, state.MutationSetCreditCards,
		[]byte(`[{"id":"id","expMonth":1,"expYear":2000,"brand":"test","last4":"0000","isDefault":true}]`)))

	shown, err := svc.ToggleNewProjectPopup(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, shown)

	shown, err = svc.ToggleNewProjectPopup(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, shown)
}

func TestDiscard(t *testing.T) {
	svc := newTestService(&mockStore{})
	a, b := uuid.New(), uuid.New()
	svc.Session(a)
	svc.Session(b)

	svc.Discard(a)

	users := svc.Users()
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })
	assert.Equal(t, []uuid.UUID{b}, users)
}

func TestPreload(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	store := &mockStore{
		listUserIDsFn: func(ctx context.Context) ([]uuid.UUID, error) { return ids, nil },
		mockQuerier: mockQuerier{
			listCreditCardsFn: func(ctx context.Context, id uuid.UUID) ([]domain.CreditCard, error) {
				return []domain.CreditCard{{ID: "card", ExpMonth: 1, ExpYear: 2030, LastFour: "1111"}}, nil
			},
		},
	}
	svc := newTestService(store)

	n, err := svc.Preload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ElementsMatch(t, ids, svc.Users())
	assert.ElementsMatch(t, ids, svc.SyncedUsers())
	for _, id := range ids {
		assert.True(t, svc.Eligibility(id).HasCreditCard)
	}
}

func TestPreload_ListError(t *testing.T) {
	svc := newTestService(&mockStore{
		listUserIDsFn: func(ctx context.Context) ([]uuid.UUID, error) { return nil, errors.New("db down") },
	})

	n, err := svc.Preload(context.Background())

	assert.ErrorContains(t, err, "db down")
	assert.Zero(t, n)
}
