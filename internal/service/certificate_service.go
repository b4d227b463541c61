package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/event"
	"github.com/skillstage/skillstage-backend/internal/model"
)

// CertificateStore is the certificate persistence surface.
type CertificateStore interface {
	Create(ctx context.Context, c *model.Certificate) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error)
}

// CertificateService issues and serves certificates. Issuance is driven by
// level.awarded events and must stay idempotent under broker redelivery.
type CertificateService struct {
	store CertificateStore
	log   zerolog.Logger
}

// NewCertificateService wires the certificate service.
func NewCertificateService(store CertificateStore, log zerolog.Logger) *CertificateService {
	return &CertificateService{
		store: store,
		log:   log.With().Str("component", "certificate_service").Logger(),
	}
}

// IssueForAward creates the certificate for an awarded level. Redelivered
// events hit the session_id uniqueness and return the no-op path.
func (s *CertificateService) IssueForAward(ctx context.Context, evt *event.LevelAwardedEvent) error {
	cert := &model.Certificate{
		ID:        uuid.New(),
		UserID:    evt.UserID,
		SessionID: evt.SessionID,
		Level:     model.Level(evt.Level),
		Serial:    newSerial(evt.Level),
		IssuedAt:  time.Now().UTC(),
	}

	created, err := s.store.Create(ctx, cert)
	if err != nil {
		return err
	}
	if !created {
		s.log.Debug().
			Str("session_id", evt.SessionID.String()).
			Msg("Certificate already issued for session, skipping")
		return nil
	}

	s.log.Info().
		Str("certificate_id", cert.ID.String()).
		Str("serial", cert.Serial).
		Str("level", evt.Level).
		Msg("Certificate issued")
	return nil
}

// Get returns one certificate. Non-admins may only read their own.
func (s *CertificateService) Get(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) (*model.Certificate, error) {
	cert, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && cert.UserID != requesterID {
		return nil, model.ErrForbidden
	}
	return cert, nil
}

// ListForUser returns a user's certificates, newest first.
func (s *CertificateService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	return s.store.ListByUser(ctx, userID)
}

// newSerial builds a printable serial like SS-B2-4F2A91C3.
func newSerial(level string) string {
	buf := make([]byte, 4)
	// rand.Read on crypto/rand never fails on supported platforms.
	_, _ = rand.Read(buf)
	return fmt.Sprintf("SS-%s-%s", strings.ToUpper(level), strings.ToUpper(hex.EncodeToString(buf)))
}
