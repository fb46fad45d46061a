package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/pkg/cryptoutil"
)

// ProfileRepo stores user profiles. Name and phone are encrypted at rest
// when a cipher is configured; interests stay plaintext because the route
// generator needs them server-side.
type ProfileRepo struct {
	db     *DB
	cipher *cryptoutil.Cipher
}

// NewProfileRepo creates a new ProfileRepo. cipher may be nil, in which
// case PII is stored as-is (local development).
func NewProfileRepo(db *DB, cipher *cryptoutil.Cipher) *ProfileRepo {
	return &ProfileRepo{db: db, cipher: cipher}
}

func (r *ProfileRepo) seal(s string) (string, error) {
	if r.cipher == nil {
		return s, nil
	}
	return r.cipher.Encrypt(s)
}

func (r *ProfileRepo) open(s string) (string, error) {
	if r.cipher == nil {
		return s, nil
	}
	return r.cipher.Decrypt(s)
}

// Upsert inserts or replaces the profile row.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	nameEnc, err := r.seal(p.Name)
	if err != nil {
		return fmt.Errorf("encrypt name: %w", err)
	}
	phoneEnc, err := r.seal(p.Phone)
	if err != nil {
		return fmt.Errorf("encrypt phone: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO users (user_id, name_enc, phone_enc, interests)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET name_enc = EXCLUDED.name_enc,
		    phone_enc = EXCLUDED.phone_enc,
		    interests = EXCLUDED.interests
	`, p.UserID, nameEnc, phoneEnc, p.Interests)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}

// Get returns the profile with PII decrypted, or nil when the user is
// unknown.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var (
		p        domain.Profile
		nameEnc  string
		phoneEnc string
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT user_id, name_enc, phone_enc, interests, created_at
		FROM users WHERE user_id = $1
	`, userID).Scan(&p.UserID, &nameEnc, &phoneEnc, &p.Interests, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageError(err)
	}

	if p.Name, err = r.open(nameEnc); err != nil {
		return nil, fmt.Errorf("decrypt name: %w", err)
	}
	if p.Phone, err = r.open(phoneEnc); err != nil {
		return nil, fmt.Errorf("decrypt phone: %w", err)
	}
	return &p, nil
}

// UpdateInterests replaces the interests string.
func (r *ProfileRepo) UpdateInterests(ctx context.Context, userID, interests string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET interests = $2 WHERE user_id = $1
	`, userID, interests)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}
