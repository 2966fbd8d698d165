package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GrantsIssued counts successfully issued access grants.
	GrantsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medgrant_grants_issued_total",
		Help: "Total number of access grants issued",
	})

	// GrantsRedeemed counts successful redemptions, first-bind and re-access.
	GrantsRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medgrant_grants_redeemed_total",
		Help: "Total number of successful grant redemptions",
	}, []string{"kind"}) // first_bind, reaccess

	// GrantDenials counts rejected code presentations by underlying cause.
	// The cause is never surfaced to callers; it exists for operators only.
	GrantDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medgrant_grant_denials_total",
		Help: "Total number of rejected code presentations",
	}, []string{"cause"}) // invalid_or_expired, foreign_bound

	// CodeRetries counts issuance attempts that had to regenerate a code.
	CodeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medgrant_code_retries_total",
		Help: "Total number of code generation retries due to collisions",
	})

	// CodeSpaceExhaustions counts issuance failures after bounded retries.
	CodeSpaceExhaustions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medgrant_code_space_exhaustions_total",
		Help: "Total number of issuance failures after exhausting code retries",
	})
)
