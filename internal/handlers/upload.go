package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/claims"
)

const (
	paymentFileField = "paymentFile"
	// multipartOverhead leaves room for the text fields and part headers on
	// top of the file itself.
	multipartOverhead = 64 * 1024
)

var errFileTooLarge = errors.New("invoice file too large")

// isAcceptedKind reports whether a media type may be used as proof of payment.
func isAcceptedKind(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

// readInvoice returns the uploaded invoice, or nil when the field is absent
// or holds a file of a kind that is not accepted.
func readInvoice(r *http.Request, maxBytes int64) (*claims.InvoiceUpload, error) {
	file, header, err := r.FormFile(paymentFileField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, errFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", paymentFileField, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, errFileTooLarge
	}

	contentType := declaredType(header)
	detected := mimetype.Detect(data)
	if contentType == "" {
		contentType = detected.String()
	}
	if !isAcceptedKind(contentType) || !isAcceptedKind(detected.String()) {
		log.WithFields(log.Fields{
			"file_name": header.Filename,
			"declared":  contentType,
			"detected":  detected.String(),
		}).Warn("Dropped payment file of unaccepted type")
		return nil, nil
	}

	return &claims.InvoiceUpload{
		Data:        data,
		ContentType: contentType,
		FileName:    header.Filename,
	}, nil
}

func declaredType(header *multipart.FileHeader) string {
	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}
