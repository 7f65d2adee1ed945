package mpesa

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
)

func TestNormalizeMSISDN(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0712345678", "254712345678", false},
		{"+254712345678", "254712345678", false},
		{"254712345678", "254712345678", false},
		{"0712 345-678", "254712345678", false},
		{"", "", true},
		{"12345", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeMSISDN(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeMSISDN(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeMSISDN(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeMSISDN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSTKPassword(t *testing.T) {
	ts := stkTimestamp(time.Date(2025, 3, 14, 10, 30, 45, 0, time.UTC))
	if ts != "20250314103045" {
		t.Fatalf("timestamp = %q", ts)
	}

	password := stkPassword("174379", "passkey", ts)
	decoded, err := base64.StdEncoding.DecodeString(password)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != "174379passkey20250314103045" {
		t.Fatalf("decoded password = %q", decoded)
	}
}

func TestSTKPush_Unconfigured(t *testing.T) {
	c := NewClient(Config{}, zerolog.Nop())
	_, err := c.STKPush(context.Background(), "0712345678", 10000, "POS00001", "test")
	if !apperr.IsUser(err) {
		t.Fatalf("expected a user error, got %v", err)
	}
}

func TestSTKPush_AmountBelowOneShilling(t *testing.T) {
	c := NewClient(Config{
		Shortcode: "174379", ConsumerKey: "k", ConsumerSecret: "s", Passkey: "p",
	}, zerolog.Nop())
	_, err := c.STKPush(context.Background(), "0712345678", 50, "POS00001", "test")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestBaseURL(t *testing.T) {
	if (Config{Environment: "sandbox"}).baseURL() != sandboxBaseURL {
		t.Fatal("sandbox config must target the sandbox host")
	}
	if (Config{Environment: "production"}).baseURL() != productionBaseURL {
		t.Fatal("production config must target the live host")
	}
}
