package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/azizikri/project-eligibility/internal/repository"
	"github.com/azizikri/project-eligibility/internal/state"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AccountService keeps one state container per user session and answers
// eligibility questions from it.
//
// A session opened by a mutation belongs to its writers and is never touched
// by the periodic resync. A session filled by Sync or Preload is backed by the
// database: resync replaces its contents and drops it once the user row is
// gone.
type AccountService struct {
	store repository.Store
	rule  domain.EligibilityRule
	log   logrus.FieldLogger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

type session struct {
	container *state.Container
	synced    bool
}

func NewAccountService(store repository.Store, rule domain.EligibilityRule, log logrus.FieldLogger) *AccountService {
	return &AccountService{
		store:    store,
		rule:     rule,
		log:      log,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Session returns the user's container, creating an empty one on first use.
func (s *AccountService) Session(userID uuid.UUID) *state.Container {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{container: state.New()}
		s.sessions[userID] = sess
	}
	return sess.container
}

func (s *AccountService) lookup(userID uuid.UUID) (*state.Container, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return sess.container, true
}

// read evaluates selector on the user's session, or on an empty state when
// the user has none. It never opens a session.
func read[T any](s *AccountService, userID uuid.UUID, selector func(*state.State) T) T {
	c, ok := s.lookup(userID)
	if !ok {
		return selector(&state.State{})
	}
	return state.Read(c, selector)
}

func (s *AccountService) markSynced(userID uuid.UUID, c *state.Container) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok && sess.container == c {
		sess.synced = true
	}
}

// Discard drops the user's container.
func (s *AccountService) Discard(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Users lists the users with a live session.
func (s *AccountService) Users() []uuid.UUID {
	return s.users(false)
}

// SyncedUsers lists the users whose session is backed by the database.
func (s *AccountService) SyncedUsers() []uuid.UUID {
	return s.users(true)
}

func (s *AccountService) users(syncedOnly bool) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if syncedOnly && !sess.synced {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *AccountService) Commit(ctx context.Context, userID uuid.UUID, mutations ...state.Mutation) error {
	if err := s.Session(userID).Commit(mutations...); err != nil {
		s.log.WithField("user_id", userID).WithError(err).Warn("commit rejected")
		return err
	}
	return nil
}

// Apply commits a mutation given by name, as delivered over HTTP or Kafka.
func (s *AccountService) Apply(ctx context.Context, userID uuid.UUID, name string, payload []byte) error {
	log := s.log.WithField("user_id", userID).WithField("mutation", name)
	if err := s.Session(userID).CommitNamed(name, payload); err != nil {
		log.WithError(err).Warn("mutation rejected")
		return err
	}
	log.Debug("mutation applied")
	return nil
}

func (s *AccountService) Eligibility(userID uuid.UUID) domain.Eligibility {
	return read(s, userID, state.ExplainEligibility(s.rule))
}

func (s *AccountService) NewProjectButtonVisible(userID uuid.UUID) bool {
	return read(s, userID, state.NewProjectButtonVisible(s.rule))
}

func (s *AccountService) Payments(userID uuid.UUID) domain.PaymentsState {
	return read(s, userID, state.PaymentsOf)
}

// ToggleNewProjectPopup opens or closes the create-project popup. It is
// refused while the create-project button is hidden.
func (s *AccountService) ToggleNewProjectPopup(ctx context.Context, userID uuid.UUID) (bool, error) {
	if !read(s, userID, state.NewProjectButtonVisible(s.rule)) {
		return false, domain.ErrNotEligible
	}
	c := s.Session(userID)
	if err := c.Commit(state.ToggleNewProjectPopup{}); err != nil {
		return false, err
	}
	return state.Read(c, state.NewProjectPopupShown), nil
}

// Sync reloads the user's state from the database and replaces the payments,
// user and projects slices in one commit.
func (s *AccountService) Sync(ctx context.Context, userID uuid.UUID) error {
	var (
		user     domain.User
		projects []domain.Project
		cards    []domain.CreditCard
		history  []domain.PaymentsHistoryItem
		balance  domain.AccountBalance
	)

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		if user, err = q.GetUser(ctx, userID); err != nil {
			return err
		}
		if projects, err = q.ListProjects(ctx, userID); err != nil {
			return err
		}
		if cards, err = q.ListCreditCards(ctx, userID); err != nil {
			return err
		}
		if history, err = q.ListPaymentsHistory(ctx, userID); err != nil {
			return err
		}
		balance, err = q.GetBalance(ctx, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("sync %s: %w", userID, err)
	}

	c := s.Session(userID)
	err = c.Commit(
		state.Clear{},
		state.SetCreditCards{Cards: cards},
		state.SetPaymentsHistory{Items: history},
		state.SetBalance{Balance: balance},
		state.SetUser{User: user},
		state.SetProjects{Projects: projects},
	)
	if err != nil {
		return fmt.Errorf("sync %s: %w", userID, err)
	}
	s.markSynced(userID, c)

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"cards":    len(cards),
		"history":  len(history),
		"projects": len(projects),
	}).Debug("session synced")
	return nil
}

// SyncAll resyncs every database-backed session. Users deleted from the
// database lose their session; other failures are logged and the loop
// continues. Sessions opened only by mutations are left alone.
func (s *AccountService) SyncAll(ctx context.Context) error {
	var errs []error
	for _, userID := range s.SyncedUsers() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Sync(ctx, userID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUserNotFound):
			s.log.WithField("user_id", userID).Info("user gone, discarding session")
			s.Discard(userID)
		default:
			s.log.WithField("user_id", userID).WithError(err).Error("resync failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Preload opens and syncs a session for every user in the database. It
// stops at the first failure.
func (s *AccountService) Preload(ctx context.Context) (int, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	for i, userID := range ids {
		if err := s.Sync(ctx, userID); err != nil {
			return i, err
		}
	}
	s.log.WithField("sessions", len(ids)).Info("sessions preloaded")
	return len(ids), nil
}
