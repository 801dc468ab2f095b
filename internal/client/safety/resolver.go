// Package safety derives a dig-safety verdict for a device location from
// cached locate tickets and utility responses. It reads only from the local
// store, never the network, so it works fully offline — and it fails
// closed: any internal error yields an ERROR verdict, never a permissive
// one.
package safety

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/client/store"
	"github.com/dkrasnovs/fieldsync/internal/client/syncmeta"
	"github.com/dkrasnovs/fieldsync/internal/logging"
)

// VerdictState is the user-facing dig-safety classification.
type VerdictState string

const (
	StateClear    VerdictState = "CLEAR"
	StateCaution  VerdictState = "CAUTION"
	StateWarning  VerdictState = "WARNING"
	StateStop     VerdictState = "STOP"
	StateNoTicket VerdictState = "NO_TICKET"
	StateError    VerdictState = "ERROR"
)

// expiryAdvisoryWindow is how close to ticket expiration an advisory is
// attached.
const expiryAdvisoryWindow = 24 * time.Hour

// TicketDistance pairs a cached ticket with its distance from the query
// point.
type TicketDistance struct {
	Ticket         models.Ticket
	DistanceMeters float64
}

// Verdict is the resolver's answer to "can I dig here?".
type Verdict struct {
	State      VerdictState
	Ticket     *models.Ticket
	Distance   float64
	Reason     string
	Advisories []string
}

// Resolver computes verdicts from the local store.
type Resolver struct {
	store store.Store
	meta  *syncmeta.Manager
	cache *verdictCache
	log   logging.Logger
	now   func() time.Time
}

// NewResolver builds a resolver. meta may not be nil: staleness of the
// cached data is part of every verdict.
func NewResolver(st store.Store, meta *syncmeta.Manager, log logging.Logger) *Resolver {
	return &Resolver{
		store: st,
		meta:  meta,
		cache: newVerdictCache(defaultCacheSize, defaultCacheTTL),
		log:   log,
		now:   time.Now,
	}
}

// InvalidateCache drops memoized verdicts. Called after every successful
// sync, since fresh server state may change any answer.
func (r *Resolver) InvalidateCache() {
	r.cache.purge()
}

// Nearby returns the cached tickets within radiusMeters of the query point,
// ordered by ascending distance. Tickets without a dig-site location are
// excluded.
func (r *Resolver) Nearby(ctx context.Context, lat, lng, radiusMeters float64) ([]TicketDistance, error) {
	recs, err := r.store.List(ctx, models.EntityTicket)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	var result []TicketDistance
	for _, rec := range recs {
		ticket, err := store.Decode[models.Ticket](rec)
		if err != nil {
			return nil, fmt.Errorf("malformed ticket %s: %w", rec.Key(), err)
		}
		if ticket.Latitude == nil || ticket.Longitude == nil {
			continue
		}
		d := haversineMeters(lat, lng, *ticket.Latitude, *ticket.Longitude)
		if d > radiusMeters {
			continue
		}
		result = append(result, TicketDistance{Ticket: *ticket, DistanceMeters: d})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DistanceMeters < result[j].DistanceMeters
	})
	return result, nil
}

// Verdict answers "can I dig here?" for the query point. The nearest ticket
// within the radius is authoritative. Any internal failure — store error,
// malformed record, missing metadata — produces an ERROR verdict alongside
// the error; ambiguity never resolves toward "safe to dig".
func (r *Resolver) Verdict(ctx context.Context, lat, lng, radiusMeters float64) (Verdict, error) {
	if cached, ok := r.cache.get(lat, lng, radiusMeters); ok {
		return cached, nil
	}

	verdict, err := r.resolve(ctx, lat, lng, radiusMeters)
	if err != nil {
		r.log.Error(ctx, "verdict resolution failed", "error", err)
		return Verdict{State: StateError, Reason: "internal error, do not dig: " + err.Error()}, err
	}

	r.cache.put(lat, lng, radiusMeters, verdict)
	return verdict, nil
}

func (r *Resolver) resolve(ctx context.Context, lat, lng, radiusMeters float64) (Verdict, error) {
	nearby, err := r.Nearby(ctx, lat, lng, radiusMeters)
	if err != nil {
		return Verdict{}, err
	}
	if len(nearby) == 0 {
		return Verdict{
			State:  StateNoTicket,
			Reason: fmt.Sprintf("no locate ticket within %.0f m", radiusMeters),
		}, nil
	}

	nearest := nearby[0]
	ticket := nearest.Ticket
	now := r.now()

	responses, err := r.ticketResponses(ctx, ticket)
	if err != nil {
		return Verdict{}, err
	}

	// the cached riskLevel is only a cache of this derivation
	level := models.DeriveRiskLevel(responses, ticket.Expired(now))

	verdict := Verdict{
		State:    VerdictState(level),
		Ticket:   &ticket,
		Distance: nearest.DistanceMeters,
		Reason:   reasonFor(level, ticket, now),
	}

	stale, err := r.meta.IsExpired(ctx)
	if err != nil {
		return Verdict{}, err
	}
	if stale {
		verdict.Advisories = append(verdict.Advisories, "offline data stale, sync recommended")
	}
	if ticket.ExpiringWithin(now, expiryAdvisoryWindow) {
		verdict.Advisories = append(verdict.Advisories,
			fmt.Sprintf("ticket expires at %s", ticket.ExpiresAt.Format(time.RFC3339)))
	}
	return verdict, nil
}

func (r *Resolver) ticketResponses(ctx context.Context, ticket models.Ticket) ([]models.UtilityResponse, error) {
	recs, err := r.store.List(ctx, models.EntityUtilityResponse)
	if err != nil {
		return nil, fmt.Errorf("list utility responses: %w", err)
	}

	var result []models.UtilityResponse
	for _, rec := range recs {
		resp, err := store.Decode[models.UtilityResponse](rec)
		if err != nil {
			return nil, fmt.Errorf("malformed utility response %s: %w", rec.Key(), err)
		}
		if resp.TicketID == ticket.ServerID || resp.TicketID == ticket.OfflineID {
			result = append(result, *resp)
		}
	}
	return result, nil
}

func reasonFor(level models.RiskLevel, ticket models.Ticket, now time.Time) string {
	switch level {
	case models.RiskStop:
		if ticket.Expired(now) {
			return "locate ticket expired, do not dig"
		}
		return "utility conflict on record, do not dig"
	case models.RiskWarning:
		return "locate responses incomplete or unverified"
	case models.RiskCaution:
		return "utilities marked on site, dig with care"
	default:
		return "all utility responses clear"
	}
}
