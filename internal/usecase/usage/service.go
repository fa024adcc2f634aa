// Package usage reports query embedding token consumption.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchkit/internal/domain"
)

// Period is a reporting window.
type Period string

// Reporting periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period string. Empty input means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth:
		return p, nil
	default:
		return "", domain.InvalidOption("period", fmt.Sprintf("must be %q or %q, got %q", PeriodDay, PeriodMonth, s))
	}
}

// Report is the token budget state for one period.
// A zero TokensLimit means unlimited; TokensRemaining is then -1.
type Report struct {
	Period          Period
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Provider        string
	TokensLimit     int64
	TokensUsed      int64
	TokensRemaining int64
	Exhausted       bool
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now().UTC()
	r := Report{Period: period, TokensRemaining: -1}

	switch period {
	case PeriodMonth:
		r.PeriodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 1, 0)
	default:
		r.Period = PeriodDay
		r.PeriodStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 0, 1)
	}

	if s.br == nil {
		return r
	}

	snap := s.br.Snapshot()
	r.Provider = snap.Provider
	if r.Period == PeriodMonth {
		r.TokensLimit, r.TokensUsed, r.TokensRemaining = snap.MonthlyLimit, snap.MonthlyUsed, snap.MonthlyRemaining
	} else {
		r.TokensLimit, r.TokensUsed, r.TokensRemaining = snap.DailyLimit, snap.DailyUsed, snap.DailyRemaining
	}
	r.Exhausted = r.TokensLimit > 0 && r.TokensRemaining <= 0
	return r
}
