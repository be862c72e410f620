package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_checkins_total",
		Help: "Photo check-ins accepted for verification.",
	})
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_verifications_total",
		Help: "Admin verification decisions by resulting status.",
	}, []string{"status"})
	ledgerUpsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_ledger_upserts_total",
		Help: "Daily ledger writes by origin type.",
	}, []string{"type"})
)
