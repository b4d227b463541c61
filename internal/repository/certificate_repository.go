package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillstage/skillstage-backend/internal/model"
)

// CertificateRepository handles certificate records.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

// Create inserts a certificate record. The unique constraint on session_id
// makes duplicate level.awarded deliveries a no-op; returns false when the
// certificate already existed.
func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO certificates (id, user_id, session_id, level, serial, issued_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id) DO NOTHING
		 RETURNING id`,
		c.ID, c.UserID, c.SessionID, c.Level, c.Serial, c.IssuedAt,
	).Scan(&c.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves a certificate record.
func (r *CertificateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	c := &model.Certificate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, level, serial, issued_at
		 FROM certificates WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.SessionID, &c.Level, &c.Serial, &c.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser retrieves a user's certificates, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, level, serial, issued_at
		 FROM certificates
		 WHERE user_id = $1
		 ORDER BY issued_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []model.Certificate
	for rows.Next() {
		var c model.Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.SessionID, &c.Level, &c.Serial, &c.IssuedAt); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}
