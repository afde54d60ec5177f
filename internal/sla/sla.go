// Package sla measures how long a claim sat in each status, in business days,
// and grades every stage against a per-status limit.
package sla

import (
	"fmt"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/bizdays"
	"github.com/claimsdesk/backend/internal/models"
)

type Indicator string

const (
	OnTime   Indicator = "ON_TIME"
	AtRisk   Indicator = "AT_RISK"
	Breached Indicator = "BREACHED"
)

// StageRecord is one occupancy interval of a status. A status visited twice
// yields two records, each graded against the full limit.
type StageRecord struct {
	Status              models.ClaimStatus `json:"status"`
	EnteredAt           time.Time          `json:"entered_at"`
	ExitedAt            *time.Time         `json:"exited_at,omitempty"`
	Open                bool               `json:"open"`
	BusinessDaysElapsed int                `json:"business_days_elapsed"`
	Limit               *int               `json:"limit,omitempty"`
	Remaining           *int               `json:"remaining,omitempty"`
	DueAt               *time.Time         `json:"due_at,omitempty"`
	Indicator           Indicator          `json:"indicator"`
}

// AtRiskFrom is the elapsed count at which a stage with limit becomes at
// risk: three quarters of the limit, rounded down.
func AtRiskFrom(limit int) int {
	return limit * 3 / 4
}

// Grade classifies elapsed business days against limit.
func Grade(elapsed, limit int) Indicator {
	switch {
	case elapsed > limit:
		return Breached
	case elapsed >= AtRiskFrom(limit):
		return AtRisk
	default:
		return OnTime
	}
}

// Compute walks a claim's audit history and returns one record per stage.
//
// history may arrive in any order; it is sorted by timestamp with ties broken
// by sequence. Each entry opens a stage for its new status that closes at the
// next entry. The last stage stays open until now, and is reported only while
// the current status has a limit. The last entry must agree with status.
//
// A malformed limit table is a validation error. A history that contradicts
// status, or is empty for a claim in a limited status, is an integrity error.
func Compute(status models.ClaimStatus, history []models.AuditLog, limits Limits, now time.Time) ([]StageRecord, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		if _, limited := limits[status]; limited {
			return nil, apperr.Integrity("history", fmt.Sprintf("no audit entries for claim in %s", status))
		}
		return nil, nil
	}

	entries := make([]models.AuditLog, len(history))
	copy(entries, history)
	models.SortAuditLogs(entries)

	last := entries[len(entries)-1]
	if models.ClaimStatus(last.NewStatus) != status {
		return nil, apperr.Integrity("history", fmt.Sprintf("last transition enters %s but claim is %s", last.NewStatus, status))
	}

	records := make([]StageRecord, 0, len(entries))
	for i, e := range entries {
		st := models.ClaimStatus(e.NewStatus)
		limit, limited := limits[st]

		if i == len(entries)-1 {
			if !limited {
				break
			}
			records = append(records, stage(st, e.CreatedAt, nil, limit, limited, now))
			break
		}

		exited := entries[i+1].CreatedAt
		records = append(records, stage(st, e.CreatedAt, &exited, limit, limited, now))
	}
	return records, nil
}

func stage(st models.ClaimStatus, entered time.Time, exited *time.Time, limit int, limited bool, now time.Time) StageRecord {
	end := now
	if exited != nil {
		end = *exited
	}

	rec := StageRecord{
		Status:              st,
		EnteredAt:           entered,
		ExitedAt:            exited,
		Open:                exited == nil,
		BusinessDaysElapsed: bizdays.BusinessDaysBetween(entered, end),
		Indicator:           OnTime,
	}
	if !limited {
		return rec
	}

	l := limit
	remaining := limit - rec.BusinessDaysElapsed
	if remaining < 0 {
		remaining = 0
	}
	due := bizdays.AddBusinessDays(entered, limit)
	rec.Limit = &l
	rec.Remaining = &remaining
	rec.DueAt = &due
	rec.Indicator = Grade(rec.BusinessDaysElapsed, limit)
	return rec
}

// Current returns the open stage, if any.
func Current(records []StageRecord) (StageRecord, bool) {
	if n := len(records); n > 0 && records[n-1].Open {
		return records[n-1], true
	}
	return StageRecord{}, false
}

// Worst returns the most severe indicator among records.
func Worst(records []StageRecord) Indicator {
	worst := OnTime
	for _, r := range records {
		switch r.Indicator {
		case Breached:
			return Breached
		case AtRisk:
			worst = AtRisk
		}
	}
	return worst
}
