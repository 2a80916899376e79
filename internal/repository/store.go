package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store reads the billing data that seeds a user's state container.
type Store interface {
	ExecTx(ctx context.Context, fn func(Querier) error) error
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Querier is the set of reads that must see one consistent snapshot.
type Querier interface {
	GetUser(ctx context.Context, userID uuid.UUID) (domain.User, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	ListCreditCards(ctx context.Context, userID uuid.UUID) ([]domain.CreditCard, error)
	ListPaymentsHistory(ctx context.Context, userID uuid.UUID) ([]domain.PaymentsHistoryItem, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (domain.AccountBalance, error)
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) Store {
	return &store{pool: pool}
}

// ExecTx runs fn inside a read-only repeatable-read transaction so every
// query in fn sees the same data.
func (s *store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(NewQueries(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *store) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id string
		if err := row.Scan(&id); err != nil {
			return uuid.Nil, err
		}
		return uuid.Parse(id)
	})
}

// Queries implements Querier on top of any DBTX.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) GetUser(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var (
		id   string
		user domain.User
	)
	err := q.db.QueryRow(ctx, `
		SELECT id::text, full_name, short_name, email, project_limit
		FROM users
		WHERE id = $1`, userID).
		Scan(&id, &user.FullName, &user.ShortName, &user.Email, &user.ProjectLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListProjects returns the projects the user owns or is a member of.
func (q *Queries) ListProjects(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT p.id::text, p.name, p.description, p.owner_id::text, p.created_at
		FROM projects p
		WHERE p.owner_id = $1
		   OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.member_id = $1)
		ORDER BY p.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Project, error) {
		var (
			p           domain.Project
			id, ownerID string
		)
		if err := row.Scan(&id, &p.Name, &p.Description, &ownerID, &p.CreatedAt); err != nil {
			return p, err
		}
		var err error
		if p.ID, err = uuid.Parse(id); err != nil {
			return p, err
		}
		p.OwnerID, err = uuid.Parse(ownerID)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (q *Queries) ListCreditCards(ctx context.Context, userID uuid.UUID) ([]domain.CreditCard, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, exp_month, exp_year, brand, last_four, is_default
		FROM credit_cards
		WHERE user_id = $1
		ORDER BY is_default DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	cards, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CreditCard, error) {
		var c domain.CreditCard
		err := row.Scan(&c.ID, &c.ExpMonth, &c.ExpYear, &c.Brand, &c.LastFour, &c.IsDefault)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	return cards, nil
}

func (q *Queries) ListPaymentsHistory(ctx context.Context, userID uuid.UUID) ([]domain.PaymentsHistoryItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, description, amount_charged::text, amount_received::text,
		       status, link, start_at, end_at, type
		FROM payments_history
		WHERE user_id = $1
		ORDER BY start_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments history: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PaymentsHistoryItem, error) {
		var (
			item              domain.PaymentsHistoryItem
			charged, received string
		)
		err := row.Scan(&item.ID, &item.Description, &charged, &received,
			&item.Status, &item.Link, &item.Start, &item.End, &item.Type)
		if err != nil {
			return item, err
		}
		if item.AmountCharged, err = decimal.NewFromString(charged); err != nil {
			return item, err
		}
		item.AmountReceived, err = decimal.NewFromString(received)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("list payments history: %w", err)
	}
	return items, nil
}

// GetBalance returns a zero balance for users without a balance row.
func (q *Queries) GetBalance(ctx context.Context, userID uuid.UUID) (domain.AccountBalance, error) {
	var (
		coins   string
		balance domain.AccountBalance
	)
	err := q.db.QueryRow(ctx, `
		SELECT coins::text, credits
		FROM account_balances
		WHERE user_id = $1`, userID).
		Scan(&coins, &balance.Credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountBalance{}, nil
		}
		return domain.AccountBalance{}, fmt.Errorf("get balance: %w", err)
	}
	if balance.Coins, err = decimal.NewFromString(coins); err != nil {
		return domain.AccountBalance{}, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}
