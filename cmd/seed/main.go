// Command seed clears the claims collection and inserts a sample authorized claim.
package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/auth"
	"github.com/ukydev/claims-portal/internal/config"
	"github.com/ukydev/claims-portal/internal/db"
	"github.com/ukydev/claims-portal/internal/models"
)

func mustTime(layout, value string) time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		panic(err)
	}
	return t
}

// sampleClaim builds CL-2467802, authorized and waiting for proof of payment.
func sampleClaim() *models.Claim {
	return &models.Claim{
		ClaimNumber:  "CL-2467802",
		Type:         "Mechanical",
		PolicyNumber: "890790123412",
		Date:         mustTime(time.DateOnly, "2025-04-10"),
		Client:       "Albert Flores",
		AssignedTo:   "David Jackson",
		CurrentOdo:   109000,
		Customer: models.Customer{
			Name:        "Devon Lane",
			Contract:    "EADV25020916",
			Deductible:  100,
			Vehicle:     "2022 DODGE Ram Pickup",
			TotalClaims: 1,
			Term:        "60 mo. / 100,000 mi.",
			VIN:         "3D7LT5AG141119811",
			Status:      models.DefaultCustomerStatus,
		},
		Sublets: []models.Sublet{
			{Name: "Rental Car Service (Max 5 days)", Qty: 2, CostPer: 30, Requested: 60},
			{Name: "Tow service - Towing up to 50 miles", Qty: 1, CostPer: 150, Requested: 150},
		},
		Services: []models.Service{
			{Description: "Engine Overheating", Cost: 240, Notes: "Complain, Cause, corruption"},
			{Description: "Breaking System Issues", Cost: 130, Notes: "Complain, Cause, corruption"},
		},
		Totals: models.Totals{
			Parts:       2465,
			Labor:       1275,
			SubletTotal: 210,
			Subtotal:    4180,
			Taxes:       296.25,
			Deductible:  -100,
			Total:       4376.25,
		},
		OtherDetails: []models.OtherDetail{
			{Label: "ARRIVED", Value: "Towed"},
			{Label: "COMMERCIAL USE", Value: "No"},
			{Label: "PHYSICAL DAMAGE", Value: "No"},
			{Label: "MODIFICATIONS", Value: "Oversize Wheels"},
		},
		Status: models.StatusAuthorized.String(),
		// newest first, as the claim page lists it
		StatusHistory: models.StatusHistory{
			{Status: "authorized", Amount: 4376.25, Timestamp: mustTime(time.RFC3339, "2025-04-15T14:30:00Z"), Color: "teal"},
			{Status: "pending", Amount: 4376.25, Timestamp: mustTime(time.RFC3339, "2025-04-12T09:15:00Z"), Color: "orange"},
		},
		Notes:       "Engine failure due to overheating. Customer towed vehicle to shop. Rental car provided.",
		Attachments: []string{},
		Payment:     models.PaymentRecord{Status: models.PaymentNotSubmitted},
	}
}

// seed replaces the collection contents with the sample claim.
func seed(ctx context.Context, claims db.ClaimCollection) (*models.Claim, error) {
	removed, err := claims.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear claims: %w", err)
	}
	log.WithField("removed", removed).Info("Cleared existing claims")

	claim := sampleClaim()
	if err := claims.InsertClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("insert %s: %w", claim.ClaimNumber, err)
	}
	return claim, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogging()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout*3)
	defer cancel()

	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
		log.Info("Disconnected from MongoDB")
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Error("Failed to create indexes")
		return
	}

	claim, err := seed(ctx, store.Claims())
	if err != nil {
		log.WithError(err).Error("Error seeding claim")
		return
	}
	log.WithFields(log.Fields{
		"claim_number": claim.ClaimNumber,
		"claim_id":     claim.ID.Hex(),
	}).Info("Seeded claim")

	if cfg.JWTSecret != "" {
		authService, err := auth.NewService(cfg.JWTSecret, 0)
		if err != nil {
			log.WithError(err).Error("Failed to create token service")
			return
		}
		token, err := authService.GenerateToken("seed-operator")
		if err != nil {
			log.WithError(err).Error("Failed to generate token")
			return
		}
		fmt.Printf("Development token: %s\n", token)
	}
}
