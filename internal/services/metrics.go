package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daily_claims_total",
		Help: "Daily reward claims by outcome.",
	}, []string{"outcome"})

	payoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_payout_total",
		Help: "Currency paid out by successful daily claims.",
	})

	claimConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_claim_conflicts_total",
		Help: "Conditional credits that lost a race to a concurrent claim.",
	})

	operatorCreditFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_operator_credit_failures_total",
		Help: "Operator side payments that could not be applied.",
	})
)
