package services

import (
	"context"
	"sort"
	"sync"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
)

// memDB is an in-memory stand-in for the pgx repositories. Lookups return
// copies so that callers cannot mutate stored rows behind the store's back.
type memDB struct {
	mu         sync.Mutex
	claims     map[uuid.UUID]models.Claim
	policies   map[uuid.UUID]models.Policy
	clients    map[uuid.UUID]models.Client
	affiliates map[uuid.UUID]models.Affiliate
	audit      []models.AuditLog
	seq        int64
	number     int64

	// applyErr, when set, fails the next ApplyTransition before anything is written
	applyErr error
}

func newMemDB() *memDB {
	return &memDB{
		claims:     map[uuid.UUID]models.Claim{},
		policies:   map[uuid.UUID]models.Policy{},
		clients:    map[uuid.UUID]models.Client{},
		affiliates: map[uuid.UUID]models.Affiliate{},
	}
}

func (db *memDB) appendAudit(e *models.AuditLog) {
	db.seq++
	e.Seq = db.seq
	db.audit = append(db.audit, *e)
}

func (db *memDB) auditFor(entityType string, id uuid.UUID) []models.AuditLog {
	var out []models.AuditLog
	for _, e := range db.audit {
		if e.EntityType == entityType && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out
}

type claimFake struct{ db *memDB }

func (f claimFake) NextNumber(context.Context) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.number++
	return f.db.number, nil
}

func (f claimFake) Create(_ context.Context, c *models.Claim, entry *models.AuditLog) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.claims[c.ID] = *c
	f.db.appendAudit(entry)
	return nil
}

func (f claimFake) GetByID(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.claims[id]
	if !ok {
		return nil, apperr.NotFound("claim", id)
	}
	return &c, nil
}

func (f claimFake) GetByNumber(_ context.Context, number int64) (*models.Claim, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, c := range f.db.claims {
		if c.Number == number {
			return &c, nil
		}
	}
	return nil, &apperr.NotFoundError{Resource: "claim"}
}

func (f claimFake) List(_ context.Context, scope rbac.Scope, filter repositories.ClaimFilter) ([]models.Claim, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.Claim
	for _, c := range f.db.claims {
		if !scope.Matches(rbac.ClaimRef(&c)) {
			continue
		}
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f claimFake) ListInStatuses(_ context.Context, statuses []models.ClaimStatus) ([]models.Claim, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.Claim
	for _, c := range f.db.claims {
		for _, st := range statuses {
			if c.Status == st {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f claimFake) ApplyTransition(_ context.Context, change *statemachine.Change) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.applyErr; err != nil {
		f.db.applyErr = nil
		return err
	}
	c, ok := f.db.claims[change.Entry.EntityID]
	if !ok || string(c.Status) != change.From {
		return apperr.ErrStaleStatus
	}
	c.Status = models.ClaimStatus(change.To)
	c.UpdatedAt = change.Entry.CreatedAt
	f.db.claims[c.ID] = c
	f.db.appendAudit(&change.Entry)
	return nil
}

type policyFake struct{ db *memDB }

func (f policyFake) Create(_ context.Context, p *models.Policy, entry *models.AuditLog) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.policies[p.ID] = *p
	f.db.appendAudit(entry)
	return nil
}

func (f policyFake) GetByID(_ context.Context, id uuid.UUID) (*models.Policy, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.policies[id]
	if !ok {
		return nil, apperr.NotFound("policy", id)
	}
	return &p, nil
}

func (f policyFake) List(_ context.Context, scope rbac.Scope, filter repositories.PolicyFilter) ([]models.Policy, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.Policy
	for _, p := range f.db.policies {
		if scope.Matches(rbac.PolicyRef(&p)) && (filter.ClientID == nil || p.ClientID == *filter.ClientID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f policyFake) ApplyTransition(_ context.Context, change *statemachine.Change) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.policies[change.Entry.EntityID]
	if !ok || string(p.Status) != change.From {
		return apperr.ErrStaleStatus
	}
	p.Status = models.PolicyStatus(change.To)
	f.db.policies[p.ID] = p
	f.db.appendAudit(&change.Entry)
	return nil
}

type clientFake struct{ db *memDB }

func (f clientFake) GetByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.clients[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	return &c, nil
}

func (f clientFake) List(_ context.Context, scope rbac.Scope, _, _ int) ([]models.Client, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.Client
	for _, c := range f.db.clients {
		if scope.Matches(rbac.ClientRef(&c)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f clientFake) Update(_ context.Context, c *models.Client) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.clients[c.ID]; !ok {
		return apperr.NotFound("client", c.ID)
	}
	f.db.clients[c.ID] = *c
	return nil
}

func (f clientFake) Delete(_ context.Context, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.clients[id]; !ok {
		return apperr.NotFound("client", id)
	}
	delete(f.db.clients, id)
	return nil
}

type affiliateFake struct{ db *memDB }

func (f affiliateFake) Create(_ context.Context, a *models.Affiliate) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a.ID = uuid.New()
	f.db.affiliates[a.ID] = *a
	return nil
}

func (f affiliateFake) GetByID(_ context.Context, id uuid.UUID) (*models.Affiliate, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.affiliates[id]
	if !ok {
		return nil, apperr.NotFound("affiliate", id)
	}
	return &a, nil
}

func (f affiliateFake) List(_ context.Context, scope rbac.Scope, filter repositories.AffiliateFilter) ([]models.Affiliate, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.Affiliate
	for _, a := range f.db.affiliates {
		if !scope.Matches(rbac.AffiliateRef(&a)) {
			continue
		}
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f affiliateFake) ListOwners(ctx context.Context, clientID uuid.UUID) ([]models.Affiliate, error) {
	owner := models.AffiliateOwner
	return f.List(ctx, rbac.Scope{Kind: rbac.ScopeAll}, repositories.AffiliateFilter{ClientID: &clientID, Type: &owner})
}

type auditFake struct{ db *memDB }

func (f auditFake) History(_ context.Context, entityType string, id uuid.UUID) ([]models.AuditLog, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.auditFor(entityType, id), nil
}

func (f auditFake) HistoryMany(_ context.Context, entityType string, ids []uuid.UUID) (map[uuid.UUID][]models.AuditLog, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := map[uuid.UUID][]models.AuditLog{}
	for _, id := range ids {
		out[id] = f.db.auditFor(entityType, id)
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(t string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
