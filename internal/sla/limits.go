package sla

import (
	"fmt"
	"os"
	"sort"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Limits maps a claim status to its business-day limit. Statuses without an
// entry are unbounded.
type Limits map[models.ClaimStatus]int

func DefaultLimits() Limits {
	return Limits{
		models.ClaimStatusValidation:  2,
		models.ClaimStatusSubmitted:   8,
		models.ClaimStatusPendingInfo: 5,
		models.ClaimStatusReturned:    3,
	}
}

// Validate rejects unknown statuses, terminal statuses and non-positive limits.
func (l Limits) Validate() error {
	for _, st := range l.statuses() {
		if !st.IsKnown() {
			return apperr.Validation("limits", fmt.Sprintf("unknown claim status %q", st))
		}
		if st.IsTerminal() {
			return apperr.Validation("limits", fmt.Sprintf("terminal status %s cannot have a limit", st))
		}
		if l[st] <= 0 {
			return apperr.Validation("limits", fmt.Sprintf("limit for %s must be positive, got %d", st, l[st]))
		}
	}
	return nil
}

func (l Limits) statuses() []models.ClaimStatus {
	out := make([]models.ClaimStatus, 0, len(l))
	for st := range l {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type limitsFile struct {
	Limits map[string]int `yaml:"limits"`
}

// ParseLimits decodes a YAML document of the form
//
//	limits:
//	  SUBMITTED: 8
//	  PENDING_INFO: 5
func ParseLimits(data []byte) (Limits, error) {
	var f limitsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperr.Validation("limits", fmt.Sprintf("malformed yaml: %v", err))
	}
	if len(f.Limits) == 0 {
		return nil, apperr.Validation("limits", "no limits defined")
	}

	limits := make(Limits, len(f.Limits))
	for k, v := range f.Limits {
		limits[models.ClaimStatus(k)] = v
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return limits, nil
}

// LoadLimits reads limits from path. An empty path yields DefaultLimits.
func LoadLimits(path string) (Limits, error) {
	if path == "" {
		return DefaultLimits(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sla limits: %w", err)
	}
	return ParseLimits(data)
}
