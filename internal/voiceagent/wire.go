package voiceagent

import (
	"strings"
	"time"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/tenants"
)

// wireCall is the provider's call object, shared by the list API and webhooks.
type wireCall struct {
	ID                        string     `json:"id"`
	CustomerNumber            string     `json:"customer_number"`
	StartedAt                 *time.Time `json:"started_at"`
	EndedAt                   *time.Time `json:"ended_at"`
	DurationSeconds           int        `json:"duration_seconds"`
	Status                    string     `json:"status"`
	EstimatedTimeSavedSeconds int        `json:"estimated_time_saved_seconds"`
	CostCents                 int64      `json:"cost_cents"`
	Currency                  string     `json:"currency"`
	TranscriptURL             string     `json:"transcript_url"`
	Summary                   string     `json:"summary"`
}

type wireAnalytics struct {
	TotalCalls       int        `json:"total_calls"`
	AverageSentiment float64    `json:"average_sentiment"`
	SuccessRate      float64    `json:"success_rate"`
	TotalMinutes     float64    `json:"total_minutes"`
	ComputedAt       *time.Time `json:"computed_at"`
}

type listResponse struct {
	Calls     []wireCall     `json:"calls"`
	Analytics *wireAnalytics `json:"analytics"`
}

func (w wireCall) toEvent(tenantID, region string) calls.CallEvent {
	ev := calls.CallEvent{
		EventID:                   strings.TrimSpace(w.ID),
		TenantID:                  tenantID,
		CustomerPhone:             tenants.NormalizeE164(w.CustomerNumber, region),
		EndedAt:                   w.EndedAt,
		DurationSeconds:           max(w.DurationSeconds, 0),
		Status:                    calls.ParseEventStatus(w.Status),
		EstimatedTimeSavedSeconds: max(w.EstimatedTimeSavedSeconds, 0),
		CostMinor:                 w.CostCents,
		Currency:                  strings.ToUpper(strings.TrimSpace(w.Currency)),
		TranscriptRef:             w.TranscriptURL,
		Summary:                   w.Summary,
	}
	if w.StartedAt != nil {
		ev.StartedAt = w.StartedAt.UTC()
	}
	if ev.EndedAt != nil {
		t := ev.EndedAt.UTC()
		ev.EndedAt = &t
		if ev.DurationSeconds == 0 && !ev.StartedAt.IsZero() && t.After(ev.StartedAt) {
			ev.DurationSeconds = int(t.Sub(ev.StartedAt) / time.Second)
		}
	}
	return ev
}

func (a *wireAnalytics) toAnalytics() *calls.AggregateAnalytics {
	if a == nil {
		return nil
	}
	out := &calls.AggregateAnalytics{
		TotalCalls:       a.TotalCalls,
		AverageSentiment: a.AverageSentiment,
		SuccessRate:      a.SuccessRate,
		TotalMinutes:     a.TotalMinutes,
	}
	if a.ComputedAt != nil {
		out.ProviderComputedAt = a.ComputedAt.UTC().Format(time.RFC3339)
	}
	return out
}
