package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/google/uuid"
)

func (f *fixture) createClaim(t *testing.T, actor *rbac.Actor, affiliateID, patientID uuid.UUID) *models.Claim {
	t.Helper()
	c, err := f.claims.Create(context.Background(), actor, CreateClaimInput{
		AffiliateID:     affiliateID,
		PatientID:       patientID,
		AmountSubmitted: "120.50",
	})
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	return c
}

func TestClaimLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.internal(rbac.RoleClaimsEmployee)

	claim := f.createClaim(t, admin, f.ownerA, f.depA)
	if claim.Status != models.ClaimStatusDraft {
		t.Fatalf("new claim status = %s, want DRAFT", claim.Status)
	}
	if claim.ClientID != f.clientA || claim.Number != 1 || claim.Code == "" {
		t.Errorf("unexpected claim %+v", claim)
	}

	// DRAFT -> SUBMITTED skips validation
	_, err := f.claims.Transition(ctx, admin, claim.ID, models.ClaimStatusSubmitted, "")
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if got := f.db.claims[claim.ID].Status; got != models.ClaimStatusDraft {
		t.Errorf("status after rejected transition = %s, want DRAFT", got)
	}
	if n := len(f.db.auditFor(models.EntityClaim, claim.ID)); n != 1 {
		t.Errorf("rejected transition wrote audit: %d entries", n)
	}

	for _, target := range []models.ClaimStatus{models.ClaimStatusValidation, models.ClaimStatusSubmitted, models.ClaimStatusSettled} {
		f.advance(24 * time.Hour)
		updated, err := f.claims.Transition(ctx, admin, claim.ID, target, "ok")
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if updated.Status != target {
			t.Errorf("status = %s, want %s", updated.Status, target)
		}
	}

	for _, target := range models.ClaimStatuses {
		if _, err := f.claims.Transition(ctx, admin, claim.ID, target, ""); !apperr.IsInvalidTransition(err) {
			t.Errorf("SETTLED -> %s: expected invalid transition, got %v", target, err)
		}
	}

	history, err := f.claims.History(ctx, admin, claim.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	wantPrev := []string{"", "DRAFT", "VALIDATION", "SUBMITTED"}
	if len(history) != len(wantPrev) {
		t.Fatalf("history has %d entries, want %d", len(history), len(wantPrev))
	}
	for i, e := range history {
		if e.PreviousStatus != wantPrev[i] {
			t.Errorf("entry %d previous = %q, want %q", i, e.PreviousStatus, wantPrev[i])
		}
		if e.ActorID == nil || *e.ActorID != admin.ID {
			t.Errorf("entry %d actor not recorded", i)
		}
	}

	if got := len(f.pub.ofType(events.EventClaimStatusChanged)); got != 3 {
		t.Errorf("status events = %d, want 3", got)
	}
	if got := len(f.pub.ofType(events.EventClaimCreated)); got != 1 {
		t.Errorf("created events = %d, want 1", got)
	}
}

func TestClaimTransitionReservedToInternalStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.createClaim(t, f.internal(rbac.RoleAdmin), f.ownerA, f.ownerA)

	actors := map[string]*rbac.Actor{
		"client admin": f.clientActor(rbac.RoleClientAdmin, f.clientA),
		"client agent": f.clientActor(rbac.RoleClientAgent, f.clientA),
		"affiliate":    f.affiliate(f.ownerA),
	}
	for name, actor := range actors {
		t.Run(name, func(t *testing.T) {
			_, err := f.claims.Transition(ctx, actor, claim.ID, models.ClaimStatusValidation, "")
			if !apperr.IsForbidden(err) {
				t.Errorf("expected forbidden, got %v", err)
			}
		})
	}
	if got := f.db.claims[claim.ID].Status; got != models.ClaimStatusDraft {
		t.Errorf("status = %s, want DRAFT", got)
	}
}

func TestClaimTransitionLostRace(t *testing.T) {
	f := newFixture(t)
	admin := f.internal(rbac.RoleAdmin)
	claim := f.createClaim(t, admin, f.ownerA, f.ownerA)

	f.db.applyErr = apperr.ErrStaleStatus
	_, err := f.claims.Transition(context.Background(), admin, claim.ID, models.ClaimStatusValidation, "")
	if !errors.Is(err, apperr.ErrStaleStatus) {
		t.Fatalf("expected stale status, got %v", err)
	}
	if n := len(f.db.auditFor(models.EntityClaim, claim.ID)); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
	if len(f.pub.ofType(events.EventClaimStatusChanged)) != 0 {
		t.Errorf("event published for a failed transition")
	}
}

func TestClaimGetForbiddenVersusNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.createClaim(t, f.internal(rbac.RoleAdmin), f.ownerA, f.depA)

	tests := []struct {
		name  string
		actor *rbac.Actor
		id    uuid.UUID
		check func(error) bool
	}{
		{"internal reads", f.internal(rbac.RoleClaimsEmployee), claim.ID, func(err error) bool { return err == nil }},
		{"client of record reads", f.clientActor(rbac.RoleClientAgent, f.clientA), claim.ID, func(err error) bool { return err == nil }},
		{"owner reads dependent's claim", f.affiliate(f.ownerA), claim.ID, func(err error) bool { return err == nil }},
		{"dependent reads own claim", f.affiliate(f.depA), claim.ID, func(err error) bool { return err == nil }},
		{"other client", f.clientActor(rbac.RoleClientAdmin, f.clientB), claim.ID, apperr.IsForbidden},
		{"other family in same client", f.affiliate(f.ownerA2), claim.ID, apperr.IsForbidden},
		{"missing claim", f.internal(rbac.RoleAdmin), uuid.New(), apperr.IsNotFound},
		{"missing claim for scoped actor", f.clientActor(rbac.RoleClientAgent, f.clientA), uuid.New(), apperr.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.claims.Get(ctx, tt.actor, tt.id)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestClaimListScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.internal(rbac.RoleAdmin)

	ownerClaim := f.createClaim(t, admin, f.ownerA, f.ownerA)
	depClaim := f.createClaim(t, admin, f.ownerA, f.depA)
	siblingClaim := f.createClaim(t, admin, f.ownerA2, f.ownerA2)
	otherClient := f.createClaim(t, admin, f.ownerB, f.ownerB)

	tests := []struct {
		name  string
		actor *rbac.Actor
		want  []uuid.UUID
	}{
		{"internal", admin, []uuid.UUID{ownerClaim.ID, depClaim.ID, siblingClaim.ID, otherClient.ID}},
		{"client agent", f.clientActor(rbac.RoleClientAgent, f.clientA), []uuid.UUID{ownerClaim.ID, depClaim.ID, siblingClaim.ID}},
		{"client admin without relationships", f.clientActor(rbac.RoleClientAdmin), nil},
		{"owner", f.affiliate(f.ownerA), []uuid.UUID{ownerClaim.ID, depClaim.ID}},
		{"dependent", f.affiliate(f.depA), []uuid.UUID{depClaim.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.claims.List(ctx, tt.actor, repositories.ClaimFilter{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d claims, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("claim %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	// a filter naming a foreign client is refused, not silently emptied
	_, err := f.claims.List(ctx, f.clientActor(rbac.RoleClientAgent, f.clientA), repositories.ClaimFilter{ClientID: &f.clientB})
	if !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden for foreign client filter, got %v", err)
	}
}

func TestClaimCreateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherPolicy := uuid.New()
	f.db.policies[otherPolicy] = models.Policy{ID: otherPolicy, ClientID: f.clientB, Status: models.PolicyStatusActive}
	expired := uuid.New()
	f.db.policies[expired] = models.Policy{ID: expired, ClientID: f.clientA, Status: models.PolicyStatusExpired}

	tests := []struct {
		name  string
		actor *rbac.Actor
		in    CreateClaimInput
		check func(error) bool
	}{
		{"owner files for dependent", f.affiliate(f.ownerA), CreateClaimInput{AffiliateID: f.ownerA, PatientID: f.depA, PolicyID: &f.policyA}, func(err error) bool { return err == nil }},
		{"client agent files", f.clientActor(rbac.RoleClientAgent, f.clientA), CreateClaimInput{AffiliateID: f.ownerA2, PatientID: f.ownerA2}, func(err error) bool { return err == nil }},
		{"patient from another family", f.internal(rbac.RoleAdmin), CreateClaimInput{AffiliateID: f.ownerA2, PatientID: f.depA}, apperr.IsValidation},
		{"affiliate files for another family", f.affiliate(f.ownerA), CreateClaimInput{AffiliateID: f.ownerA2, PatientID: f.ownerA2}, apperr.IsForbidden},
		{"dependent files for owner", f.affiliate(f.depA), CreateClaimInput{AffiliateID: f.ownerA, PatientID: f.ownerA}, apperr.IsForbidden},
		{"client agent of another client", f.clientActor(rbac.RoleClientAgent, f.clientB), CreateClaimInput{AffiliateID: f.ownerA, PatientID: f.ownerA}, apperr.IsForbidden},
		{"policy of another client", f.internal(rbac.RoleAdmin), CreateClaimInput{AffiliateID: f.ownerA, PatientID: f.ownerA, PolicyID: &otherPolicy}, apperr.IsValidation},
		{"expired policy", f.internal(rbac.RoleAdmin), CreateClaimInput{AffiliateID: f.ownerA, PatientID: f.ownerA, PolicyID: &expired}, apperr.IsValidation},
		{"bad amount", f.internal(rbac.RoleAdmin), CreateClaimInput{AffiliateID: f.ownerA, PatientID: f.ownerA, AmountSubmitted: "-3"}, apperr.IsValidation},
		{"unknown affiliate", f.internal(rbac.RoleAdmin), CreateClaimInput{AffiliateID: uuid.New(), PatientID: uuid.New()}, apperr.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.claims.Create(ctx, tt.actor, tt.in)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestClaimGetByCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.createClaim(t, f.internal(rbac.RoleAdmin), f.ownerA, f.ownerA)

	got, err := f.claims.GetByCode(ctx, f.affiliate(f.ownerA), claim.Code)
	if err != nil || got.ID != claim.ID {
		t.Fatalf("GetByCode = %v, %v", got, err)
	}
	if _, err := f.claims.GetByCode(ctx, f.affiliate(f.ownerB), claim.Code); !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := f.claims.GetByCode(ctx, f.affiliate(f.ownerA), "!!"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for malformed code, got %v", err)
	}
}

func TestClaimSLA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.internal(rbac.RoleAdmin)
	claim := f.createClaim(t, admin, f.ownerA, f.ownerA)

	// Mon: VALIDATION, Tue: SUBMITTED
	if _, err := f.claims.Transition(ctx, admin, claim.ID, models.ClaimStatusValidation, ""); err != nil {
		t.Fatal(err)
	}
	f.advance(24 * time.Hour)
	if _, err := f.claims.Transition(ctx, admin, claim.ID, models.ClaimStatusSubmitted, ""); err != nil {
		t.Fatal(err)
	}

	// two weeks later: 10 business days in SUBMITTED
	f.advance(14 * 24 * time.Hour)
	report, err := f.claims.SLA(ctx, f.clientActor(rbac.RoleClientAgent, f.clientA), claim.ID)
	if err != nil {
		t.Fatalf("SLA: %v", err)
	}
	if report.Current == nil {
		t.Fatalf("expected an open stage")
	}
	if report.Current.Status != models.ClaimStatusSubmitted || report.Current.BusinessDaysElapsed != 10 {
		t.Errorf("current = %s %d, want SUBMITTED 10", report.Current.Status, report.Current.BusinessDaysElapsed)
	}
	if report.Worst != sla.Breached || report.Current.Indicator != sla.Breached {
		t.Errorf("worst = %s, want BREACHED", report.Worst)
	}
	// DRAFT (0 days), VALIDATION (1 day), SUBMITTED (open)
	if len(report.Stages) != 3 {
		t.Errorf("stages = %d, want 3", len(report.Stages))
	}

	if _, err := f.claims.SLA(ctx, f.affiliate(f.ownerB), claim.ID); !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}
