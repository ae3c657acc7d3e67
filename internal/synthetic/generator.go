package synthetic

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"calldata-platform/internal/calls"
)

// DefaultAnchor is the fixed reference instant synthetic timestamps are laid out from.
// It is a constant, not time.Now, so output is identical across processes.
var DefaultAnchor = time.Date(2025, time.January, 6, 17, 0, 0, 0, time.UTC)

// Generator produces deterministic, tenant-keyed placeholder data.
//
// Every pseudo-random choice is drawn from a PRNG seeded with a stable hash of the
// tenant id, so a tenant always sees the same names, phone number and identifiers.
// Identifiers embed the tenant id in a fixed-width template and are therefore
// unique per tenant. The phone number is keyed by a separate hash of the tenant id;
// see Phone for its collision bound.
type Generator struct {
	Anchor   time.Time
	Currency string
}

func New() *Generator {
	return &Generator{Anchor: DefaultAnchor, Currency: "USD"}
}

func (g *Generator) anchor() time.Time {
	if g == nil || g.Anchor.IsZero() {
		return DefaultAnchor
	}
	return g.Anchor
}

func (g *Generator) currency() string {
	if g == nil || g.Currency == "" {
		return "USD"
	}
	return g.Currency
}

// Records returns the synthetic appointment log for tenantID.
func (g *Generator) Records(tenantID string) []calls.CallRecord {
	rng := seeded(tenantID, "records")
	phone := Phone(tenantID)
	base := g.anchor()

	n := 8 + rng.Intn(5)
	out := make([]calls.CallRecord, 0, n)
	for i := 0; i < n; i++ {
		day := rng.Intn(14)
		slot := rng.Intn(len(timeWindows))
		scheduled := base.AddDate(0, 0, -day).Truncate(24 * time.Hour).Add(time.Duration(timeWindows[slot].startHour) * time.Hour)

		out = append(out, calls.CallRecord{
			RecordID:        fmt.Sprintf("syn_%s_rec_%03d", tenantID, i),
			TenantID:        tenantID,
			CustomerName:    pick(rng, firstNames) + " " + pick(rng, lastNames),
			CustomerPhone:   phone,
			ScheduledAt:     scheduled,
			TimeWindowLabel: timeWindows[slot].label,
			Status:          pick(rng, recordStatuses),
			Address:         fmt.Sprintf("%d %s", 100+rng.Intn(9800), pick(rng, streets)),
			Notes:           pick(rng, notes),
			Intent:          pick(rng, intents),
		})
	}
	return out
}

// Events returns the synthetic call feed for tenantID.
func (g *Generator) Events(tenantID string) []calls.CallEvent {
	rng := seeded(tenantID, "events")
	phone := Phone(tenantID)
	base := g.anchor()
	currency := g.currency()

	n := 10 + rng.Intn(10)
	out := make([]calls.CallEvent, 0, n)
	for i := 0; i < n; i++ {
		started := base.Add(-time.Duration(rng.Intn(14*24*60)) * time.Minute)
		status := pick(rng, eventStatuses)

		duration := 0
		if status != calls.EventStatusFailed && status != calls.EventStatusNoAnswer {
			duration = 30 + rng.Intn(570)
		}
		ended := started.Add(time.Duration(duration) * time.Second)

		id := fmt.Sprintf("syn_%s_evt_%03d", tenantID, i)
		out = append(out, calls.CallEvent{
			EventID:                   id,
			TenantID:                  tenantID,
			CustomerPhone:             phone,
			StartedAt:                 started,
			EndedAt:                   &ended,
			DurationSeconds:           duration,
			Status:                    status,
			EstimatedTimeSavedSeconds: duration + 60*rng.Intn(4),
			// 12 cents per started minute.
			CostMinor:     int64((duration+59)/60) * 12,
			Currency:      currency,
			TranscriptRef: "synthetic://" + id,
			Summary:       pick(rng, summaries),
		})
	}
	return out
}

// Analytics summarizes the synthetic call feed the way a provider would.
func (g *Generator) Analytics(tenantID string) *calls.AggregateAnalytics {
	events := g.Events(tenantID)
	var seconds, ok int
	for _, e := range events {
		seconds += e.DurationSeconds
		if e.Status == calls.EventStatusCompleted {
			ok++
		}
	}
	out := &calls.AggregateAnalytics{TotalCalls: len(events), TotalMinutes: float64(seconds) / 60}
	if len(events) > 0 {
		out.SuccessRate = float64(ok) / float64(len(events))
	}
	return out
}

// phoneSpace is the number of 12-digit subscriber numbers under the synthetic country code.
const phoneSpace = 1_000_000_000_000

// Phone returns the synthetic customer number for tenantID in E.164 form.
//
// Numbers live under the unassigned country code 999, so they never reach a real
// subscriber, and use the full 15-digit E.164 length. Distinct tenants share a
// number only on a hash collision: across n tenants the chance of any shared number
// is about n*n/(2*phoneSpace), roughly 0.5% at 100k tenants.
func Phone(tenantID string) string {
	return fmt.Sprintf("+999%012d", hash64("phone|"+tenantID)%phoneSpace)
}

func seeded(tenantID, stream string) *rand.Rand {
	return rand.New(rand.NewSource(int64(hash64(stream + "|" + tenantID))))
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.Intn(len(xs))]
}
