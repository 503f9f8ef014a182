package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/claims-portal/internal/models"
)

var authToken string

var methods = []models.PaymentMethod{models.MethodWire, models.MethodACH, models.MethodCheck}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	return httpClient.Do(req)
}

func fetchClaims(apiURL string) ([]models.Claim, error) {
	resp, err := httpClient.Get(apiURL + "/claims")
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing claims failed with status: %d", resp.StatusCode)
	}
	var list []models.Claim
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	return list, nil
}

// payable reports whether a claim is authorized and still waiting for proof of payment.
func payable(c models.Claim) bool {
	return c.Payment.EffectiveStatus() == models.PaymentNotSubmitted &&
		c.StatusHistory.IndexOf(models.StatusAuthorized) >= 0
}

// invoicePDF renders a minimal single-page PDF naming the claim.
func invoicePDF(claimNumber string, amount float64) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n")
	fmt.Fprintf(&b, "2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n")
	fmt.Fprintf(&b, "3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >> endobj\n")
	fmt.Fprintf(&b, "%% invoice %s amount %.2f\n", claimNumber, amount)
	fmt.Fprintf(&b, "trailer << /Root 1 0 R >>\n%%%%EOF\n")
	return b.Bytes()
}

func submitPayment(apiURL string, c models.Claim, method models.PaymentMethod) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("id", c.ID.Hex()); err != nil {
		return err
	}
	if err := mw.WriteField("paymentMethod", string(method)); err != nil {
		return err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="paymentFile"; filename="%s-invoice.pdf"`, c.ClaimNumber))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(invoicePDF(c.ClaimNumber, c.Totals.Total)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := authorizedPost(apiURL+"/claims/submit", mw.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("failed to submit payment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("payment submission failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// run submits proof of payment for every payable claim and returns how many succeeded.
func run(apiURL string) (int, error) {
	list, err := fetchClaims(apiURL)
	if err != nil {
		return 0, err
	}
	submitted := 0
	for _, c := range list {
		if !payable(c) {
			continue
		}
		method := methods[rand.Intn(len(methods))]
		if err := submitPayment(apiURL, c, method); err != nil {
			log.WithError(err).WithField("claim_number", c.ClaimNumber).Error("Failed to submit payment")
			continue
		}
		submitted++
		log.WithFields(log.Fields{
			"claim_number": c.ClaimNumber,
			"method":       method,
		}).Info("Submitted payment")
	}
	return submitted, nil
}

func main() {
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	log.WithField("api_url", apiURL).Info("Starting payment simulation")
	n, err := run(apiURL)
	if err != nil {
		log.WithError(err).Fatal("Payment simulation failed")
	}
	log.WithField("submitted", n).Info("Payment simulation finished")
}
