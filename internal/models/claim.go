package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claim represents a repair-cost reimbursement case.
type Claim struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ClaimNumber  string             `bson:"claimNumber" json:"claimNumber"`
	Type         string             `bson:"type" json:"type"` // "Mechanical", "Collision", ...
	PolicyNumber string             `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	Date         time.Time          `bson:"date" json:"date"`

	Client     string  `bson:"client,omitempty" json:"client,omitempty"`
	AssignedTo string  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	CurrentOdo float64 `bson:"currentOdo,omitempty" json:"currentOdo,omitempty"` // in miles

	Customer Customer `bson:"customer" json:"customer"`

	Sublets  []Sublet  `bson:"sublets" json:"sublets"`
	Services []Service `bson:"services" json:"services"`
	Totals   Totals    `bson:"totals" json:"totals"`

	OtherDetails []OtherDetail `bson:"otherDetails" json:"otherDetails"`

	Status        string        `bson:"status" json:"status"`
	StatusHistory StatusHistory `bson:"statusHistory" json:"statusHistory"`

	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
	Attachments []string `bson:"attachments" json:"attachments"`

	Payment PaymentRecord `bson:"payment" json:"payment"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Customer holds the customer and contract profile attached to a claim.
type Customer struct {
	Name        string  `bson:"name" json:"name"`
	Contract    string  `bson:"contract,omitempty" json:"contract,omitempty"`
	Deductible  float64 `bson:"deductible,omitempty" json:"deductible,omitempty"`
	Vehicle     string  `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	TotalClaims int     `bson:"totalClaims,omitempty" json:"totalClaims,omitempty"`
	Term        string  `bson:"term,omitempty" json:"term,omitempty"`
	VIN         string  `bson:"vin,omitempty" json:"vin,omitempty"`
	Status      string  `bson:"status" json:"status"` // "Active" unless set
}

// Sublet is third-party work billed through the claim (towing, rentals).
type Sublet struct {
	Name      string  `bson:"name" json:"name"`
	Qty       float64 `bson:"qty" json:"qty"`
	CostPer   float64 `bson:"costPer" json:"costPer"`
	Requested float64 `bson:"requested" json:"requested"`
}

// Service is a repair line item.
type Service struct {
	Description string  `bson:"description" json:"description"`
	Cost        float64 `bson:"cost" json:"cost"`
	Notes       string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Totals is the stored monetary breakdown. It is never recomputed here.
type Totals struct {
	Parts       float64 `bson:"parts" json:"parts"`
	Labor       float64 `bson:"labor" json:"labor"`
	SubletTotal float64 `bson:"subletTotal" json:"subletTotal"`
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
	Taxes       float64 `bson:"taxes" json:"taxes"`
	Deductible  float64 `bson:"deductible" json:"deductible"`
	Total       float64 `bson:"total" json:"total"`
}

// OtherDetail is a free-form label/value pair shown on the claim page.
type OtherDetail struct {
	Label string `bson:"label" json:"label"`
	Value string `bson:"value" json:"value"`
}

const (
	DefaultClaimStatus    = "draft"
	DefaultCustomerStatus = "Active"
)

// ApplyDefaults fills the defaults a freshly created claim carries.
func (c *Claim) ApplyDefaults(now time.Time) {
	if c.Status == "" {
		c.Status = DefaultClaimStatus
	}
	if c.Customer.Status == "" {
		c.Customer.Status = DefaultCustomerStatus
	}
	if c.Date.IsZero() {
		c.Date = now
	}
	if c.Payment.Status == "" {
		c.Payment.Status = PaymentNotSubmitted
	}
	if c.StatusHistory == nil {
		c.StatusHistory = StatusHistory{}
	}
	if c.Attachments == nil {
		c.Attachments = []string{}
	}
	for i := range c.StatusHistory {
		if c.StatusHistory[i].Timestamp.IsZero() {
			c.StatusHistory[i].Timestamp = now
		}
	}
}

// Validate checks the fields a claim document requires.
func (c *Claim) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ClaimNumber) == "" {
		errs = append(errs, errors.New("claimNumber is required"))
	}
	if strings.TrimSpace(c.Type) == "" {
		errs = append(errs, errors.New("type is required"))
	}
	if strings.TrimSpace(c.Customer.Name) == "" {
		errs = append(errs, errors.New("customer.name is required"))
	}
	for i, s := range c.Sublets {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Errorf("sublets[%d].name is required", i))
		}
	}
	for i, s := range c.Services {
		if strings.TrimSpace(s.Description) == "" {
			errs = append(errs, fmt.Errorf("services[%d].description is required", i))
		}
	}
	for i, o := range c.OtherDetails {
		if o.Label == "" || o.Value == "" {
			errs = append(errs, fmt.Errorf("otherDetails[%d] needs label and value", i))
		}
	}
	for i, ev := range c.StatusHistory {
		if ev.Status == "" {
			errs = append(errs, fmt.Errorf("statusHistory[%d].status is required", i))
		}
		if ev.Amount < 0 {
			errs = append(errs, fmt.Errorf("statusHistory[%d].amount must not be negative", i))
		}
	}
	if c.Payment.Status != "" && !IsValidPaymentStatus(c.Payment.Status) {
		errs = append(errs, fmt.Errorf("payment.status %q is not valid", c.Payment.Status))
	}
	return errors.Join(errs...)
}
