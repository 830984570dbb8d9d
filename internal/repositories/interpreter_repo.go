package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/interplink/internal/database"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// InterpreterRepository is the credential store: interpreter users joined with
// their profiles and first-login credentials.
type InterpreterRepository struct {
	db *database.DB
}

func NewInterpreterRepository(db *database.DB) *InterpreterRepository {
	return &InterpreterRepository{db: db}
}

const interpreterAccountSelect = `
	SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at, u.updated_at,
	       p.id, p.user_id, p.first_name, p.last_name, p.status, p.is_verified,
	       p.languages, p.specializations, p.created_at, p.updated_at,
	       c.id, c.interpreter_id, c.temp_password_hash, c.login_token, c.token_expiry,
	       c.first_login, c.last_login_at, c.created_at, c.updated_at
	FROM users u
	JOIN interpreter_profiles p ON p.user_id = u.id
	LEFT JOIN interpreter_credentials c ON c.interpreter_id = p.id
	WHERE u.role = 'INTERPRETER'`

const credentialColumns = `id, interpreter_id, temp_password_hash, login_token, token_expiry,
	first_login, last_login_at, created_at, updated_at`

// scanInterpreterAccount reads one row of interpreterAccountSelect.
// Credential is nil when the profile has no credential row.
func scanInterpreterAccount(scanner rowScanner) (*models.InterpreterAccount, error) {
	var (
		user                models.User
		profile             models.InterpreterProfile
		passwordHash        *string
		role, status        string
		credID, credProfile *string
		tempHash, token     *string
		tokenExpiry         *time.Time
		firstLogin          *bool
		lastLogin           *time.Time
		credCreated         *time.Time
		credUpdated         *time.Time
	)

	err := scanner.Scan(
		&user.ID, &user.Email, &user.Name, &passwordHash, &role, &user.CreatedAt, &user.UpdatedAt,
		&profile.ID, &profile.UserID, &profile.FirstName, &profile.LastName, &status, &profile.IsVerified,
		pq.Array(&profile.Languages), pq.Array(&profile.Specializations), &profile.CreatedAt, &profile.UpdatedAt,
		&credID, &credProfile, &tempHash, &token, &tokenExpiry,
		&firstLogin, &lastLogin, &credCreated, &credUpdated,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if user.Role, err = models.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	if profile.Status, err = models.ParseInterpreterStatus(status); err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.ID, err)
	}
	profile.Languages = emptyIfNil(profile.Languages)
	profile.Specializations = emptyIfNil(profile.Specializations)

	account := &models.InterpreterAccount{User: &user, Profile: &profile}
	if credID != nil {
		account.Credential = &models.Credential{
			ID:               *credID,
			InterpreterID:    *credProfile,
			TempPasswordHash: tempHash,
			LoginToken:       token,
			TokenExpiry:      tokenExpiry,
			FirstLogin:       firstLogin != nil && *firstLogin,
			LastLoginAt:      lastLogin,
		}
		if credCreated != nil {
			account.Credential.CreatedAt = *credCreated
		}
		if credUpdated != nil {
			account.Credential.UpdatedAt = *credUpdated
		}
	}

	return account, nil
}

func scanCredential(scanner rowScanner) (*models.Credential, error) {
	var c models.Credential
	err := scanner.Scan(
		&c.ID, &c.InterpreterID, &c.TempPasswordHash, &c.LoginToken, &c.TokenExpiry,
		&c.FirstLogin, &c.LastLoginAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

// GetInterpreterByEmail looks up an INTERPRETER by email (case-insensitive).
// Users with any other role are indistinguishable from missing ones: ErrNotFound.
func (r *InterpreterRepository) GetInterpreterByEmail(ctx context.Context, email string) (*models.InterpreterAccount, error) {
	query := interpreterAccountSelect + ` AND LOWER(u.email) = LOWER($1)`
	return scanInterpreterAccount(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *InterpreterRepository) GetInterpreterByUserID(ctx context.Context, userID string) (*models.InterpreterAccount, error) {
	query := interpreterAccountSelect + ` AND u.id = $1`
	return scanInterpreterAccount(r.db.Pool.QueryRow(ctx, query, userID))
}

func (r *InterpreterRepository) GetInterpreterByProfileID(ctx context.Context, profileID string) (*models.InterpreterAccount, error) {
	query := interpreterAccountSelect + ` AND p.id = $1`
	return scanInterpreterAccount(r.db.Pool.QueryRow(ctx, query, profileID))
}

func (r *InterpreterRepository) ListInterpreters(ctx context.Context, limit, offset int) ([]*models.InterpreterAccount, error) {
	query := interpreterAccountSelect + ` ORDER BY p.created_at DESC, p.id LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query interpreters: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.InterpreterAccount, 0)
	for rows.Next() {
		account, err := scanInterpreterAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interpreter: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

func (r *InterpreterRepository) CountInterpreters(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*) FROM interpreter_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE u.role = 'INTERPRETER'
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// StampLastLogin records a successful sign-in that did not rotate the password
func (r *InterpreterRepository) StampLastLogin(ctx context.Context, credentialID string, at time.Time) error {
	query := `UPDATE interpreter_credentials SET last_login_at = $2, updated_at = $2 WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, credentialID, at)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CompleteFirstLogin stores the permanent password and retires the one-time
// credentials in a single transaction. Concurrent calls are not serialized:
// the last committed password wins.
func (r *InterpreterRepository) CompleteFirstLogin(ctx context.Context, userID, credentialID, passwordHash string, at time.Time) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
			userID, passwordHash, at,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		tag, err = tx.Exec(ctx, `
			UPDATE interpreter_credentials
			SET temp_password_hash = NULL,
			    login_token = NULL,
			    token_expiry = NULL,
			    first_login = FALSE,
			    last_login_at = $2,
			    updated_at = $2
			WHERE id = $1`,
			credentialID, at,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// IssueCredential puts a profile back into first-login state with a fresh temp
// password hash and login token. deliver runs inside the transaction after the
// write; if it fails nothing is committed.
func (r *InterpreterRepository) IssueCredential(
	ctx context.Context,
	profileID, tempPasswordHash, loginToken string,
	tokenExpiry, at time.Time,
	deliver func(ctx context.Context, cred *models.Credential) error,
) (*models.Credential, error) {
	var issued *models.Credential

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO interpreter_credentials
				(id, interpreter_id, temp_password_hash, login_token, token_expiry, first_login, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
			ON CONFLICT (interpreter_id) DO UPDATE SET
				temp_password_hash = EXCLUDED.temp_password_hash,
				login_token = EXCLUDED.login_token,
				token_expiry = EXCLUDED.token_expiry,
				first_login = TRUE,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + credentialColumns

		cred, err := scanCredential(tx.QueryRow(ctx, query,
			uuid.New().String(), profileID, tempPasswordHash, loginToken, tokenExpiry, at,
		))
		if err != nil {
			return err
		}

		if deliver != nil {
			if err := deliver(ctx, cred); err != nil {
				return err
			}
		}
		issued = cred
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issued, nil
}

// ClearExpiredLoginTokens drops expired one-time tokens. Only rows that still
// hold a temp password are touched, so a first-login account is never left
// with neither secret.
func (r *InterpreterRepository) ClearExpiredLoginTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE interpreter_credentials
		SET login_token = NULL, token_expiry = NULL, updated_at = $1
		WHERE login_token IS NOT NULL
		  AND token_expiry < $1
		  AND temp_password_hash IS NOT NULL
	`

	tag, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

// CreateInterpreter provisions a user, profile and initial credential together.
// Account creation proper belongs to another service; this backs seeding and tests.
func (r *InterpreterRepository) CreateInterpreter(ctx context.Context, user *models.User, profile *models.InterpreterProfile, cred *models.Credential) (*models.InterpreterAccount, error) {
	if user.Role != models.RoleInterpreter {
		return nil, fmt.Errorf("%w: interpreter accounts require the INTERPRETER role", models.ErrBadRequest)
	}

	if profile.Status == "" {
		profile.Status = models.InterpreterStatusPending
	}

	now := time.Now().UTC()
	user.ID = uuid.New().String()
	profile.ID = uuid.New().String()
	profile.UserID = user.ID

	var passwordHash *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			user.ID, user.Email, user.Name, passwordHash, user.Role.String(), now,
		); err != nil {
			return database.MapPostgresError(err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO interpreter_profiles
				(id, user_id, first_name, last_name, status, is_verified, languages, specializations, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			profile.ID, user.ID, profile.FirstName, profile.LastName, string(profile.Status),
			profile.IsVerified, textArray(profile.Languages), textArray(profile.Specializations), now,
		); err != nil {
			return database.MapPostgresError(err)
		}

		if cred == nil {
			return nil
		}
		cred.ID = uuid.New().String()
		cred.InterpreterID = profile.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO interpreter_credentials
				(id, interpreter_id, temp_password_hash, login_token, token_expiry, first_login, last_login_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
			cred.ID, cred.InterpreterID, cred.TempPasswordHash, cred.LoginToken, cred.TokenExpiry,
			cred.FirstLogin, cred.LastLoginAt, now,
		)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return nil, err
	}

	return r.GetInterpreterByProfileID(ctx, profile.ID)
}
