// Package mpesa initiates Lipa na M-Pesa STK push payments through the
// Safaricom Daraja API.
package mpesa

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

// Config carries the Daraja credentials for one paybill or till.
type Config struct {
	Shortcode      string
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Environment    string // sandbox or production
	CallbackURL    string
}

func (c Config) Configured() bool {
	return c.Shortcode != "" && c.ConsumerKey != "" && c.ConsumerSecret != "" && c.Passkey != ""
}

func (c Config) baseURL() string {
	if c.Environment == "production" {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// NormalizeMSISDN converts a Kenyan subscriber number to the 254XXXXXXXXX
// form the Daraja API expects.
func NormalizeMSISDN(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(strings.TrimSpace(phone))
	if cleaned == "" {
		return "", apperr.Validation("Phone number is required")
	}

	if num, err := phonenumbers.Parse(phone, "KE"); err == nil && phonenumbers.IsValidNumber(num) {
		return fmt.Sprintf("%d%d", num.GetCountryCode(), num.GetNationalNumber()), nil
	}

	// Fallback for test-range numbers the metadata rejects.
	switch {
	case strings.HasPrefix(cleaned, "254") && len(cleaned) == 12:
		return cleaned, nil
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		return "254" + cleaned[1:], nil
	}
	return "", apperr.Validation("Phone number must be a valid Kenyan mobile number")
}

// stkPassword derives the push password for a timestamp in the Daraja
// YYYYMMDDHHMMSS format.
func stkPassword(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

func stkTimestamp(t time.Time) string {
	return t.Format("20060102150405")
}
