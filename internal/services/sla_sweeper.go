package services

import (
	"context"
	"sort"
	"time"

	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SLASweeper grades the open stage of every claim sitting in a limited status,
// refreshes the SLA gauges and announces new breaches once per stage.
type SLASweeper struct {
	claims    ClaimStore
	audit     AuditStore
	limits    sla.Limits
	metrics   *sla.Metrics
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time

	// claim id -> EnteredAt of the stage already reported as breached
	notified map[uuid.UUID]time.Time
}

func NewSLASweeper(claims ClaimStore, audit AuditStore, limits sla.Limits, metrics *sla.Metrics, publisher events.Publisher, log *zap.Logger) *SLASweeper {
	return &SLASweeper{
		claims:    claims,
		audit:     audit,
		limits:    limits,
		metrics:   metrics,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		notified:  make(map[uuid.UUID]time.Time),
	}
}

type SweepResult struct {
	Claims      int
	AtRisk      int
	Breached    int
	NewBreaches int
	Skipped     int
}

// Sweep is not safe for concurrent use; the worker calls it from one loop.
func (s *SLASweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var res SweepResult

	statuses := make([]models.ClaimStatus, 0, len(s.limits))
	for st := range s.limits {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	claims, err := s.claims.ListInStatuses(ctx, statuses)
	if err != nil {
		return res, err
	}
	ids := make([]uuid.UUID, len(claims))
	for i := range claims {
		ids[i] = claims[i].ID
	}
	histories, err := s.audit.HistoryMany(ctx, models.EntityClaim, ids)
	if err != nil {
		return res, err
	}

	now := s.now()
	tally := sla.Tally{}
	breached := make(map[uuid.UUID]bool)
	for i := range claims {
		c := &claims[i]
		records, err := sla.Compute(c.Status, histories[c.ID], s.limits, now)
		if err != nil {
			s.log.Warn("sla compute failed", zap.String("claim_id", c.ID.String()), zap.Error(err))
			res.Skipped++
			continue
		}
		cur, ok := sla.Current(records)
		if !ok {
			continue
		}

		res.Claims++
		tally.Add(cur)
		switch cur.Indicator {
		case sla.AtRisk:
			res.AtRisk++
		case sla.Breached:
			res.Breached++
			breached[c.ID] = true
			if entered, seen := s.notified[c.ID]; !seen || !entered.Equal(cur.EnteredAt) {
				s.notified[c.ID] = cur.EnteredAt
				res.NewBreaches++
				s.announce(ctx, c, cur)
			}
		}
	}

	for id := range s.notified {
		if !breached[id] {
			delete(s.notified, id)
		}
	}

	if s.metrics != nil {
		s.metrics.SetOpen(tally, s.limits)
		s.metrics.ObserveSweep(time.Since(start))
	}
	return res, nil
}

func (s *SLASweeper) announce(ctx context.Context, c *models.Claim, cur sla.StageRecord) {
	if s.metrics != nil {
		s.metrics.Breach(c.Status)
	}
	s.log.Warn("sla breached",
		zap.String("claim_id", c.ID.String()),
		zap.String("status", string(c.Status)),
		zap.Int("business_days", cur.BusinessDaysElapsed),
	)

	payload := claimPayload(c)
	payload["status"] = string(c.Status)
	payload["business_days_elapsed"] = cur.BusinessDaysElapsed
	if cur.Limit != nil {
		payload["limit"] = *cur.Limit
	}
	_ = s.publisher.Publish(ctx, events.StreamSLA, events.Event{Type: events.EventSLABreached, Payload: payload})
}
