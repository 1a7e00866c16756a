package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Repository for PostgreSQL. Credential
// secrets are stored sealed; the repository never sees a plaintext password.
// Live sessions are process-local state and are not persisted.
type AccountRepository struct {
	conn *Connection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

const accountColumns = `
	id, service, display_name, school_name, username, sealed_secret,
	instance_url, bindings, created_at, updated_at
`

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	bindingsJSON, err := marshalBindings(acct.Bindings)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		acct.ID,
		string(acct.Service),
		acct.DisplayName,
		acct.SchoolName,
		acct.Credentials.Username,
		acct.Credentials.Secret,
		acct.Credentials.InstanceURL,
		bindingsJSON,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID returns an account by its local identity.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.conn.QueryRow(ctx, query, id))
}

// List returns every stored account.
func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acct, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// Update persists mutated fields.
func (r *AccountRepository) Update(ctx context.Context, acct *account.Account) error {
	query := `
		UPDATE accounts SET
			display_name = $1,
			school_name = $2,
			username = $3,
			sealed_secret = $4,
			instance_url = $5,
			bindings = $6,
			updated_at = $7
		WHERE id = $8
	`

	bindingsJSON, err := marshalBindings(acct.Bindings)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		acct.DisplayName,
		acct.SchoolName,
		acct.Credentials.Username,
		acct.Credentials.Secret,
		acct.Credentials.InstanceURL,
		bindingsJSON,
		time.Now().UTC(),
		acct.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acct account.Account
	var service string
	var bindingsJSON []byte

	err := row.Scan(
		&acct.ID,
		&service,
		&acct.DisplayName,
		&acct.SchoolName,
		&acct.Credentials.Username,
		&acct.Credentials.Secret,
		&acct.Credentials.InstanceURL,
		&bindingsJSON,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acct.Service = account.Service(service)
	acct.Bindings, err = unmarshalBindings(bindingsJSON)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func marshalBindings(bindings map[account.Feature]uuid.UUID) ([]byte, error) {
	if bindings == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bindings: %w", err)
	}
	return data, nil
}

func unmarshalBindings(data []byte) (map[account.Feature]uuid.UUID, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var bindings map[account.Feature]uuid.UUID
	if err := json.Unmarshal(data, &bindings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bindings: %w", err)
	}
	if len(bindings) == 0 {
		return nil, nil
	}
	return bindings, nil
}
