package classification

import (
	"time"

	"github.com/rs/zerolog"
	"inkasso/internal/logger"
	"inkasso/pkg/models"
)

// Classify decides one invoice under the default rule table.
func Classify(age models.Days, latestPayment, evaluatedAt time.Time) Verdict {
	return DefaultRules().Classify(age, latestPayment, evaluatedAt)
}

// Engine classifies the invoices of one run against anchors captured once at creation.
type Engine struct {
	rules         Rules
	latestPayment time.Time
	evaluatedAt   time.Time
	log           zerolog.Logger
}

// NewEngine creates an engine for one run. The rule table is copied so later changes to
// the caller's slice do not leak into the run.
func NewEngine(rules Rules, latestPayment, evaluatedAt time.Time) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	own := make(Rules, len(rules))
	copy(own, rules)

	return &Engine{
		rules:         own,
		latestPayment: latestPayment,
		evaluatedAt:   evaluatedAt,
		log:           logger.WithComponent("classification"),
	}, nil
}

// LatestPayment returns the reference payment date of the run.
func (e *Engine) LatestPayment() time.Time {
	return e.latestPayment
}

// EvaluatedAt returns the evaluation instant of the run.
func (e *Engine) EvaluatedAt() time.Time {
	return e.evaluatedAt
}

// Classify decides a single age.
func (e *Engine) Classify(age models.Days) Verdict {
	return e.rules.Classify(age, e.latestPayment, e.evaluatedAt)
}

// ClassifyAll returns one verdict per invoice, in input order.
func (e *Engine) ClassifyAll(invoices []models.Invoice) []Verdict {
	verdicts := make([]Verdict, len(invoices))
	counts := make(map[Verdict]int, 3)
	for i, inv := range invoices {
		verdicts[i] = e.Classify(inv.AgeDays)
		counts[verdicts[i]]++
	}

	e.log.Info().
		Int("invoices", len(invoices)).
		Int("ready", counts[Ready]).
		Int("wait", counts[Wait]).
		Int("unknown", counts[Unknown]).
		Time("latest_payment", e.latestPayment).
		Time("evaluated_at", e.evaluatedAt).
		Msg("Invoices classified")

	return verdicts
}
