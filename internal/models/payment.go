package models

import "time"

// PaymentStatus is the lifecycle of the proof-of-payment record.
type PaymentStatus string

const (
	PaymentNotSubmitted PaymentStatus = "not_submitted"
	PaymentPending      PaymentStatus = "pending"
	PaymentPaid         PaymentStatus = "paid"
)

// IsValidPaymentStatus checks if a payment status is valid
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentNotSubmitted, PaymentPending, PaymentPaid:
		return true
	default:
		return false
	}
}

// PaymentMethod is how the payout was made.
type PaymentMethod string

const (
	MethodWire  PaymentMethod = "wire"
	MethodACH   PaymentMethod = "ach"
	MethodCheck PaymentMethod = "check"
)

// ParsePaymentMethod accepts exactly "wire", "ach" or "check".
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch m := PaymentMethod(raw); m {
	case MethodWire, MethodACH, MethodCheck:
		return m, true
	default:
		return "", false
	}
}

// InvoiceFile is the proof-of-payment stored inline with the claim.
type InvoiceFile struct {
	Data        []byte `bson:"data" json:"data"`
	ContentType string `bson:"contentType" json:"contentType"`
	FileName    string `bson:"fileName" json:"fileName"`
}

// PaymentRecord tracks the submission of proof-of-payment for a claim.
type PaymentRecord struct {
	Status      PaymentStatus `bson:"status" json:"status"`
	SubmittedAt *time.Time    `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	Method      PaymentMethod `bson:"method,omitempty" json:"method,omitempty"`
	File        *InvoiceFile  `bson:"file,omitempty" json:"file,omitempty"`
}

// EffectiveStatus treats a missing status as not_submitted.
func (p PaymentRecord) EffectiveStatus() PaymentStatus {
	if p.Status == "" {
		return PaymentNotSubmitted
	}
	return p.Status
}
