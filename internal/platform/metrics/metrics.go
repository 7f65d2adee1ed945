// Package metrics exposes Prometheus counters for dispensing activity and the
// external integrations.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SalesFinalized         prometheus.Counter
	SalesBlocked           *prometheus.CounterVec
	PrescriptionsDispensed prometheus.Counter
	RegisterEntries        prometheus.Counter
	ExpiredLotRejections   prometheus.Counter
	ETIMSSubmissions       *prometheus.CounterVec
	MpesaPushes            *prometheus.CounterVec
}

// New creates and registers all metrics on reg (use prometheus.DefaultRegisterer
// in production, a fresh registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SalesFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmacy_sales_finalized_total",
			Help: "Sales that passed the dispensing gate and were completed",
		}),
		SalesBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacy_sales_blocked_total",
			Help: "Sales blocked at the dispensing gate, by reason",
		}, []string{"reason"}),
		PrescriptionsDispensed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmacy_prescriptions_dispensed_total",
			Help: "Prescriptions fully dispensed",
		}),
		RegisterEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmacy_register_entries_total",
			Help: "Controlled-drugs register entries recorded",
		}),
		ExpiredLotRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmacy_expired_lot_rejections_total",
			Help: "Sale lines rejected because the selected lot had expired",
		}),
		ETIMSSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacy_etims_submissions_total",
			Help: "KRA eTIMS invoice submissions, by outcome",
		}, []string{"outcome"}),
		MpesaPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacy_mpesa_pushes_total",
			Help: "M-Pesa STK push attempts, by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.SalesFinalized,
		m.SalesBlocked,
		m.PrescriptionsDispensed,
		m.RegisterEntries,
		m.ExpiredLotRejections,
		m.ETIMSSubmissions,
		m.MpesaPushes,
	)

	return m
}

// Handler serves the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
