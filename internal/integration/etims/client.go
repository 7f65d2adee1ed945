package etims

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/softlink/pharmacy-pos/internal/domain/sale"
	"github.com/softlink/pharmacy-pos/internal/platform/metrics"
	"github.com/softlink/pharmacy-pos/internal/platform/sequence"
)

// Record is a persisted invoice tied to the sale it bills.
type Record struct {
	ID     uuid.UUID `json:"id"`
	SaleID uuid.UUID `json:"sale_id"`
	Invoice
}

// Repository stores issued invoices.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	GetBySaleID(ctx context.Context, saleID uuid.UUID) (*Record, error)
}

// Client generates invoices and submits them to the eTIMS API. It implements
// sale.Invoicer.
type Client struct {
	cfg     Config
	seq     sequence.Allocator
	repo    Repository
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewClient(cfg Config, seq sequence.Allocator, repo Repository, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		seq:  seq,
		repo: repo,
		http: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "etims",
			Timeout: 60 * time.Second,
		}),
		log: log,
	}
}

// SetMetrics attaches the optional metrics sink.
func (c *Client) SetMetrics(m *metrics.Metrics) { c.metrics = m }

func (c *Client) outcome(label string) {
	if c.metrics != nil {
		c.metrics.ETIMSSubmissions.WithLabelValues(label).Inc()
	}
}

// IssueInvoice generates the invoice for a finalized sale and, in production,
// submits it. Generation failures are returned; submission failures are
// recorded on the invoice and swallowed so the sale stands.
func (c *Client) IssueInvoice(ctx context.Context, s *sale.Sale) error {
	if !c.cfg.Configured() {
		c.log.Warn().Str("sale", s.Number).Msg("etims not configured, skipping invoice")
		c.outcome("skipped")
		return nil
	}

	now := time.Now()
	counter, err := c.seq.Next(ctx, "etims."+now.Format("20060102"))
	if err != nil {
		return err
	}

	number := InvoiceNumber(c.cfg.ControlUnitSerial, now, counter)
	total := s.TotalCents()
	signature := Sign(number, total, now)

	rec := &Record{
		ID:     uuid.New(),
		SaleID: s.ID,
		Invoice: Invoice{
			Number:     number,
			CUSerial:   c.cfg.ControlUnitSerial,
			Date:       now,
			TotalCents: total,
			Signature:  signature,
			QRPayload:  QRPayload(c.cfg, number, signature, total, now),
		},
	}

	if c.cfg.Environment == "production" {
		c.submit(ctx, s, rec)
	}

	if err := c.repo.Save(ctx, rec); err != nil {
		return err
	}
	c.log.Info().Str("sale", s.Number).Str("invoice", rec.Number).Bool("submitted", rec.Submitted).Msg("etims invoice issued")
	return nil
}

type submitPayload struct {
	InvoiceNumber string  `json:"invoiceNumber"`
	CUSerial      string  `json:"cuSerial"`
	InvoiceDate   string  `json:"invoiceDate"`
	SellerPin     string  `json:"sellerPin"`
	TotalAmount   float64 `json:"totalAmount"`
	Signature     string  `json:"signature"`
}

func (c *Client) submit(ctx context.Context, s *sale.Sale, rec *Record) {
	body, err := json.Marshal(submitPayload{
		InvoiceNumber: rec.Number,
		CUSerial:      rec.CUSerial,
		InvoiceDate:   rec.Date.Format("2006-01-02 15:04:05"),
		SellerPin:     c.cfg.PIN,
		TotalAmount:   float64(rec.TotalCents) / 100,
		Signature:     rec.Signature,
	})
	if err != nil {
		return
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/invoices", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("etims returned %d: %s", resp.StatusCode, raw)
		}
		return string(raw), nil
	})
	if err != nil {
		c.outcome("failed")
		msg := err.Error()
		rec.Response = &msg
		c.log.Error().Err(err).Str("sale", s.Number).Str("invoice", rec.Number).Msg("etims submission failed")
		return
	}

	c.outcome("submitted")
	now := time.Now()
	rec.Submitted = true
	rec.SubmissionDate = &now
	if text, ok := result.(string); ok && text != "" {
		rec.Response = &text
	}
}
