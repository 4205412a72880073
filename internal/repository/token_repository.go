package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

// TokenRepo persists refresh tokens and single-use user tokens
// (activation, password reset).  Only hashes are stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return errors.Wrap(err, "store refresh token")
}

// ValidateRefresh returns the owner of a non-revoked token that has not
// expired at now.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, notFound(err, "validate refresh token")
	}
	if revokedAt.Valid || !now.Before(expiresAt) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.  Revoking twice is harmless.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(6) WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return errors.Wrap(err, "revoke refresh token")
}

// RevokeAllForUser revokes all of the user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(6) WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return errors.Wrap(err, "revoke user refresh tokens")
}

// CreateUserToken stores a single-use token of the given kind.
func (r *TokenRepo) CreateUserToken(ctx context.Context, userID uint64, kind, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_tokens (user_id, kind, token_hash, expires_at) VALUES (?,?,?,?)",
		userID, kind, tokenHash, exp.UTC())
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "store user token")
}

// ConsumeUserToken marks the token used and returns its owner.  The update
// only matches an unused, unexpired row, so a token is honoured once even
// under concurrent use.
func (r *TokenRepo) ConsumeUserToken(ctx context.Context, kind, tokenHash string, now time.Time) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM user_tokens WHERE kind=? AND token_hash=? LIMIT 1",
		kind, tokenHash).Scan(&userID)
	if err != nil {
		return 0, notFound(err, "find user token")
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE user_tokens SET used_at=?
		 WHERE kind=? AND token_hash=? AND used_at IS NULL AND expires_at > ?`,
		now.UTC(), kind, tokenHash, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "consume user token")
	}
	if err := mustAffect(res, "consume user token"); err != nil {
		return 0, err
	}
	return userID, nil
}
