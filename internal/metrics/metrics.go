package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_mutations_total",
		Help: "Confirmed ledger mutations, labeled by operation",
	}, []string{"operation"})

	FundsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_funds_added_total",
		Help: "Sum of all confirmed top-up amounts",
	})

	ConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_confirmations_total",
		Help: "Confirmation decisions, labeled by outcome",
	}, []string{"decision"})
)
