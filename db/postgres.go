package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

func New(ctx context.Context, connString string, clock clock.Clock, sealer *Sealer) (DB, error) {
	if sealer == nil {
		return nil, errors.New("a token sealer is required")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &postgresDB{pool: pool, clock: clock, sealer: sealer}, nil
}

type postgresDB struct {
	pool   *pgxpool.Pool
	clock  clock.Clock
	sealer *Sealer
}

func (db *postgresDB) GetCredential(ctx context.Context, userID string) (*model.Credential, error) {
	const query = `SELECT user_id, provider_user_id, access_token, refresh_token,
						expires_at, created_at, updated_at
					FROM credentials WHERE user_id=@userID`

	var c model.Credential
	var providerUserID sql.NullString
	var access, refresh []byte
	var expires, created, updated pgtype.Timestamptz
	err := db.pool.QueryRow(ctx, query, pgx.NamedArgs{"userID": userID}).Scan(
		&c.UserID,
		&providerUserID,
		&access,
		&refresh,
		&expires,
		&created,
		&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("error scanning credential for %s: %w", userID, err)
	}

	if c.AccessToken, err = db.sealer.Open(access); err != nil {
		return nil, fmt.Errorf("error opening access token for %s: %w", userID, err)
	}
	if c.RefreshToken, err = db.sealer.Open(refresh); err != nil {
		return nil, fmt.Errorf("error opening refresh token for %s: %w", userID, err)
	}
	c.ProviderUserID = valueOrEmpty(providerUserID)
	c.ExpiresAt = expires.Time
	c.CreatedAt = created.Time
	c.UpdatedAt = updated.Time

	return &c, nil
}

func (db *postgresDB) SaveCredential(ctx context.Context, c *model.Credential) error {
	if c == nil || c.UserID == "" {
		return errors.New("SaveCredential - credential has no user")
	}

	const upsert = `INSERT INTO credentials (
		user_id, provider_user_id, access_token, refresh_token, expires_at, created_at, updated_at
	) VALUES (
		@userID, @providerUserID, @accessToken, @refreshToken, @expiresAt, @now, @now
	)
	ON CONFLICT (user_id) DO UPDATE SET
		provider_user_id = COALESCE(EXCLUDED.provider_user_id, credentials.provider_user_id),
		access_token = EXCLUDED.access_token,
		refresh_token = COALESCE(EXCLUDED.refresh_token, credentials.refresh_token),
		expires_at = EXCLUDED.expires_at,
		updated_at = EXCLUDED.updated_at`

	access, err := db.sealer.Seal(c.AccessToken)
	if err != nil {
		return fmt.Errorf("error sealing access token: %w", err)
	}
	refresh, err := db.sealer.Seal(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("error sealing refresh token: %w", err)
	}

	args := pgx.NamedArgs{
		"userID":         c.UserID,
		"providerUserID": nullString(c.ProviderUserID),
		"accessToken":    access,
		"refreshToken":   refresh,
		"expiresAt":      timestamptz(c.ExpiresAt),
		"now":            timestamptz(db.clock.Now()),
	}
	if _, err := db.pool.Exec(ctx, upsert, args); err != nil {
		return fmt.Errorf("error saving credential for %s: %w", c.UserID, err)
	}
	return nil
}

func valueOrEmpty(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

func nullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:             t.UTC(),
		InfinityModifier: pgtype.Finite,
		Valid:            true,
	}
}

func intPtr(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func floatPtr(v pgtype.Float8) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
