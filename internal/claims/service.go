// Package claims implements the claim queries and the payment submission
// workflow that moves an authorized claim to paid.
package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/db"
	"github.com/ukydev/claims-portal/internal/models"
	"github.com/ukydev/claims-portal/internal/notify"
)

// PaidColor is the display tag given to the history entry that becomes paid.
const PaidColor = "green"

// InvoiceUpload is the proof-of-payment file as received from the client.
type InvoiceUpload struct {
	Data        []byte
	ContentType string
	FileName    string
}

// SubmitPaymentRequest carries the inputs of a payment submission.
type SubmitPaymentRequest struct {
	ClaimID       string
	PaymentMethod string
	File          *InvoiceUpload
}

// Service handles claim lookups and payment submission.
type Service struct {
	store    db.ClaimCollection
	notifier notify.Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the hook called after a payment is committed.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new claim service
func NewService(store db.ClaimCollection, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notify.NopNotifier{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListClaims returns every claim.
func (s *Service) ListClaims(ctx context.Context) ([]models.Claim, error) {
	claims, err := s.store.FindClaims(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return claims, nil
}

// GetClaim returns a single claim by id.
func (s *Service) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := s.store.FindClaimByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return claim, nil
}

// GetInvoice returns the proof-of-payment stored on a claim.
func (s *Service) GetInvoice(ctx context.Context, id string) (*models.InvoiceFile, error) {
	claim, err := s.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.Payment.File == nil || len(claim.Payment.File.Data) == 0 {
		return nil, ErrInvoiceNotFound
	}
	return claim.Payment.File, nil
}

// SubmitPayment validates the request, moves the claim's first authorized
// history entry to paid, attaches the invoice and persists the claim in a
// single conditional write. On error nothing has been written.
func (s *Service) SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*models.Claim, error) {
	if req.ClaimID == "" {
		return nil, ErrMissingClaimID
	}
	if req.File == nil || len(req.File.Data) == 0 {
		return nil, ErrMissingInvoiceFile
	}
	method, ok := models.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	claim, err := s.store.FindClaimByID(ctx, req.ClaimID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	loaded := claim.Payment.EffectiveStatus()
	if loaded == models.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	idx := claim.StatusHistory.IndexOf(models.StatusAuthorized)
	if idx == -1 {
		return nil, ErrNotAuthorized
	}
	if n := claim.StatusHistory.Count(models.StatusAuthorized); n > 1 {
		log.WithFields(log.Fields{
			"claim_id":         req.ClaimID,
			"authorized_count": n,
			"index":            idx,
		}).Warn("Claim has several authorized entries, using the first in storage order")
	}

	now := s.now()
	event := claim.StatusHistory[idx]
	event.Status = models.StatusPaid.String()
	event.Timestamp = now
	event.Color = PaidColor
	claim.StatusHistory[idx] = event

	claim.Payment.File = &models.InvoiceFile{
		Data:        req.File.Data,
		ContentType: req.File.ContentType,
		FileName:    strings.TrimSpace(req.File.FileName),
	}
	claim.Payment.Method = method
	claim.Payment.Status = models.PaymentPaid
	claim.Payment.SubmittedAt = &now
	claim.Status = models.StatusPaid.String()

	if err := s.store.SaveClaim(ctx, claim, loaded); err != nil {
		switch {
		case errors.Is(err, db.ErrConflict):
			return nil, ErrAlreadyPaid
		case errors.Is(err, db.ErrClaimNotFound):
			return nil, ErrClaimNotFound
		default:
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	log.WithFields(log.Fields{
		"claim_id":     req.ClaimID,
		"claim_number": claim.ClaimNumber,
		"method":       method,
		"file_name":    claim.Payment.File.FileName,
		"file_bytes":   len(claim.Payment.File.Data),
	}).Info("Payment submitted")

	paymentEvent := notify.PaymentEvent{
		ClaimID:     claim.ID.Hex(),
		ClaimNumber: claim.ClaimNumber,
		Method:      string(method),
		Amount:      event.Amount,
		FileName:    claim.Payment.File.FileName,
		SubmittedAt: now,
	}
	if err := s.notifier.PaymentSubmitted(ctx, paymentEvent); err != nil {
		log.WithError(err).WithField("claim_id", req.ClaimID).Error("Failed to publish payment event")
	}

	return claim, nil
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, db.ErrInvalidID):
		return ErrInvalidIdentifier
	case errors.Is(err, db.ErrClaimNotFound):
		return ErrClaimNotFound
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}
