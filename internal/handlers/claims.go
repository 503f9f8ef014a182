package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/claims"
	"github.com/ukydev/claims-portal/internal/middleware"
	"github.com/ukydev/claims-portal/internal/models"
)

// ClaimService is the workflow the handlers call into.
type ClaimService interface {
	ListClaims(ctx context.Context) ([]models.Claim, error)
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	GetInvoice(ctx context.Context, id string) (*models.InvoiceFile, error)
	SubmitPayment(ctx context.Context, req claims.SubmitPaymentRequest) (*models.Claim, error)
}

// ClaimHandler serves the claim API.
type ClaimHandler struct {
	service        ClaimService
	maxUploadBytes int64
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(service ClaimService, maxUploadBytes int64) *ClaimHandler {
	return &ClaimHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the claim API on mux. Only payment submission goes
// through the auth middleware.
func (h *ClaimHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *middleware.AuthMiddleware) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/claims", h.List)
	mux.HandleFunc("GET /api/claims/{id}", h.Get)
	mux.HandleFunc("GET /api/claims/{id}/invoice", h.Invoice)
	mux.Handle("POST /api/claims/submit", authMiddleware.Authenticate(http.HandlerFunc(h.Submit)))
}

// Health reports liveness.
func (h *ClaimHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// List returns every claim.
func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListClaims(r.Context())
	if err != nil {
		log.WithError(err).Error("GET /api/claims failed")
		writeMessage(w, http.StatusInternalServerError, "Server error fetching claims")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get returns one claim.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	claim, err := h.service.GetClaim(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, log.Fields{"claim_id": id})
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// Invoice streams back the stored proof-of-payment file.
func (h *ClaimHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	file, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, log.Fields{"claim_id": id})
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.FileName}))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// Submit handles the multipart payment submission form.
func (h *ClaimHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	err := r.ParseMultipartForm(h.maxUploadBytes + multipartOverhead)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
	case errors.As(err, &maxErr):
		writeMessage(w, http.StatusRequestEntityTooLarge, "Invoice file exceeds the upload limit")
		return
	default:
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var file *claims.InvoiceUpload
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
		file, err = readInvoice(r, h.maxUploadBytes)
		if errors.Is(err, errFileTooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Invoice file exceeds the upload limit")
			return
		}
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
	}

	req := claims.SubmitPaymentRequest{
		ClaimID:       r.FormValue("id"),
		PaymentMethod: r.FormValue("paymentMethod"),
		File:          file,
	}
	fields := log.Fields{"claim_id": req.ClaimID, "method": req.PaymentMethod}
	if principal, ok := middleware.GetPrincipalFromContext(r.Context()); ok {
		fields["submitted_by"] = principal.Subject
	}

	if _, err := h.service.SubmitPayment(r.Context(), req); err != nil {
		h.fail(w, r, err, fields)
		return
	}
	writeMessage(w, http.StatusOK, "Payment submission successful")
}

// fail maps a workflow error onto its status code and message.
func (h *ClaimHandler) fail(w http.ResponseWriter, r *http.Request, err error, fields log.Fields) {
	status, message := statusFor(err)
	entry := log.WithFields(fields).WithFields(log.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"path":       r.URL.Path,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Claim request failed")
	} else {
		entry.Warn("Claim request rejected")
	}
	writeMessage(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, claims.ErrMissingClaimID):
		return http.StatusBadRequest, "Claim ID is required"
	case errors.Is(err, claims.ErrMissingInvoiceFile):
		return http.StatusBadRequest, "Invoice file is required"
	case errors.Is(err, claims.ErrInvalidPaymentMethod):
		return http.StatusBadRequest, "Invalid payment method"
	case errors.Is(err, claims.ErrInvalidIdentifier):
		return http.StatusBadRequest, "Invalid claim ID format"
	case errors.Is(err, claims.ErrClaimNotFound):
		return http.StatusNotFound, "Claim not found"
	case errors.Is(err, claims.ErrAlreadyPaid):
		return http.StatusBadRequest, "Payment already processed for this claim"
	case errors.Is(err, claims.ErrNotAuthorized):
		return http.StatusBadRequest, "No authorized status found"
	case errors.Is(err, claims.ErrInvoiceNotFound):
		return http.StatusNotFound, "No invoice attached to this claim"
	case errors.Is(err, claims.ErrPersistence):
		return http.StatusInternalServerError, "Failed to save claim; reload it before retrying"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
