// Package etims generates KRA eTIMS compliant tax invoices: invoice number,
// signature and QR code locally, submission to the eTIMS API best-effort.
package etims

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"
)

// Config carries the trader registration details and API credentials.
type Config struct {
	PIN               string
	VATNumber         string
	ControlUnitSerial string
	APIBaseURL        string
	Username          string
	Password          string
	Environment       string // sandbox or production
}

// Configured reports whether the registration details needed for invoice
// generation are present.
func (c Config) Configured() bool {
	return c.PIN != "" && c.ControlUnitSerial != ""
}

// Invoice is a generated eTIMS invoice, ready for printing and submission.
type Invoice struct {
	Number     string    `json:"number"`
	CUSerial   string    `json:"cu_serial"`
	Date       time.Time `json:"date"`
	TotalCents int64     `json:"total_cents"`
	Signature  string    `json:"signature"`
	QRPayload  string    `json:"qr_payload"`

	Submitted      bool       `json:"submitted"`
	SubmissionDate *time.Time `json:"submission_date,omitempty"`
	Response       *string    `json:"response,omitempty"`
}

// InvoiceNumber builds `{CUSerial}-{YYYYMMDD}-{counter:05d}`. The counter is
// per-day; the sequence key used to allocate it must include the date.
func InvoiceNumber(cuSerial string, date time.Time, dailyCounter int64) string {
	return fmt.Sprintf("%s-%s-%05d", cuSerial, date.Format("20060102"), dailyCounter)
}

// Sign produces the first 16 hex characters of the SHA-256 over invoice
// number, total and date.
func Sign(invoiceNumber string, totalCents int64, date time.Time) string {
	data := fmt.Sprintf("%s%.2f%s", invoiceNumber, float64(totalCents)/100, date.Format("2006-01-02 15:04:05"))
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:16]
}

// QRPayload builds the pipe-delimited string encoded into the receipt QR.
func QRPayload(cfg Config, invoiceNumber, signature string, totalCents int64, date time.Time) string {
	return fmt.Sprintf("PIN:%s|CU:%s|INV:%s|DATE:%s|TOTAL:%.2f|SIG:%s",
		cfg.PIN, cfg.ControlUnitSerial, invoiceNumber,
		date.Format("2006-01-02 15:04:05"), float64(totalCents)/100, signature)
}

// QRCodePNG renders the payload as a PNG.
func QRCodePNG(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Low, 256)
}
