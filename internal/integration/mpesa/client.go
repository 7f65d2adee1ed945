package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/metrics"
)

// PushResult is the synchronous acknowledgement of an STK push. The payment
// itself completes asynchronously on the customer's handset.
type PushResult struct {
	MerchantRequestID string `json:"merchant_request_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	ResponseCode      string `json:"response_code"`
	CustomerMessage   string `json:"customer_message"`
}

// Client talks to the Daraja API.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mpesa",
			Timeout: 60 * time.Second,
		}),
		log: log,
	}
}

// SetMetrics attaches the optional metrics sink.
func (c *Client) SetMetrics(m *metrics.Metrics) { c.metrics = m }

func (c *Client) outcome(label string) {
	if c.metrics != nil {
		c.metrics.MpesaPushes.WithLabelValues(label).Inc()
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken returns a cached OAuth token, fetching a fresh one when the
// cache is stale.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.baseURL()+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mpesa oauth returned %d: %s", resp.StatusCode, raw)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("mpesa oauth returned an empty token")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(50 * time.Minute)
	return c.token, nil
}

type stkRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkResponse struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	CustomerMessage   string `json:"CustomerMessage"`
	ErrorMessage      string `json:"errorMessage"`
}

// STKPush asks the customer's handset to authorise a payment. amountCents is
// rounded down to whole shillings, the smallest unit Daraja accepts.
func (c *Client) STKPush(ctx context.Context, phone string, amountCents int64, reference, description string) (*PushResult, error) {
	if !c.cfg.Configured() {
		return nil, apperr.User("M-Pesa credentials not configured")
	}
	msisdn, err := NormalizeMSISDN(phone)
	if err != nil {
		return nil, err
	}
	amount := amountCents / 100
	if amount < 1 {
		return nil, apperr.Validation("Amount must be at least one shilling")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		c.outcome("failed")
		return nil, err
	}

	timestamp := stkTimestamp(time.Now())
	body, err := json.Marshal(stkRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          stkPassword(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            msisdn,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       msisdn,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   description,
	})
	if err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.baseURL()+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var out stkResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK || out.ResponseCode != "0" {
			msg := out.ErrorMessage
			if msg == "" {
				msg = fmt.Sprintf("mpesa returned %d", resp.StatusCode)
			}
			return nil, fmt.Errorf("stk push rejected: %s", msg)
		}
		return &out, nil
	})
	if err != nil {
		c.outcome("failed")
		c.log.Error().Err(err).Str("reference", reference).Msg("stk push failed")
		return nil, err
	}

	out := result.(*stkResponse)
	c.outcome("initiated")
	c.log.Info().Str("reference", reference).Str("checkout_request", out.CheckoutRequestID).Msg("stk push initiated")
	return &PushResult{
		MerchantRequestID: out.MerchantRequestID,
		CheckoutRequestID: out.CheckoutRequestID,
		ResponseCode:      out.ResponseCode,
		CustomerMessage:   out.CustomerMessage,
	}, nil
}
