package db

import (
	"context"
	"errors"

	"github.com/ukydev/claims-portal/internal/models"
)

var (
	ErrInvalidID            = errors.New("invalid claim id")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrConflict             = errors.New("claim was modified concurrently")
	ErrDuplicateClaimNumber = errors.New("claim number already exists")
	errNilCollection        = errors.New("mongo collection is nil")
)

// ClaimCollection defines the interface for claim data operations.
type ClaimCollection interface {
	// FindClaims returns every stored claim.
	FindClaims(ctx context.Context) ([]models.Claim, error)
	// FindClaimByID fails with ErrInvalidID for a malformed id and
	// ErrClaimNotFound when nothing matches.
	FindClaimByID(ctx context.Context, id string) (*models.Claim, error)
	// SaveClaim replaces the stored document with claim in one write, but only
	// while its payment status still equals expect. Otherwise it returns
	// ErrConflict, or ErrClaimNotFound if the document is gone.
	SaveClaim(ctx context.Context, claim *models.Claim, expect models.PaymentStatus) error
	InsertClaim(ctx context.Context, claim *models.Claim) error
	DeleteAll(ctx context.Context) (int64, error)
}
