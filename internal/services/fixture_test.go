package services

import (
	"testing"
	"time"

	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/numbering"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// fixture seeds two clients:
//
//	clientA: ownerA with dependent depA, ownerA2 (another family), policyA (ACTIVE)
//	clientB: ownerB
type fixture struct {
	db  *memDB
	pub *recordingPublisher
	now time.Time

	claims     *ClaimService
	policies   *PolicyService
	clients    *ClientService
	affiliates *AffiliateService
	sweeper    *SLASweeper
	metrics    *sla.Metrics

	clientA, clientB      uuid.UUID
	ownerA, depA, ownerA2 uuid.UUID
	ownerB                uuid.UUID
	policyA               uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	enc, err := numbering.NewEncoder("test-salt", 6)
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}

	f := &fixture{
		db:  newMemDB(),
		pub: &recordingPublisher{},
		// Monday
		now: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	log := zap.NewNop()
	resolver := rbac.NewResolver(log)

	f.claims = NewClaimService(claimFake{f.db}, policyFake{f.db}, affiliateFake{f.db}, auditFake{f.db}, resolver, enc, sla.DefaultLimits(), f.pub, log)
	f.claims.now = clock
	f.policies = NewPolicyService(policyFake{f.db}, clientFake{f.db}, resolver, f.pub, log)
	f.policies.now = clock
	f.clients = NewClientService(clientFake{f.db}, resolver, log)
	f.affiliates = NewAffiliateService(affiliateFake{f.db}, resolver, log)
	f.metrics = sla.NewMetrics(prometheus.NewRegistry())
	f.sweeper = NewSLASweeper(claimFake{f.db}, auditFake{f.db}, sla.DefaultLimits(), f.metrics, f.pub, log)
	f.sweeper.now = clock

	f.clientA = f.addClient("Acme")
	f.clientB = f.addClient("Globex")
	f.ownerA = f.addAffiliate(f.clientA, nil)
	f.depA = f.addAffiliate(f.clientA, &f.ownerA)
	f.ownerA2 = f.addAffiliate(f.clientA, nil)
	f.ownerB = f.addAffiliate(f.clientB, nil)

	f.policyA = uuid.New()
	f.db.policies[f.policyA] = models.Policy{
		ID:           f.policyA,
		ClientID:     f.clientA,
		InsurerID:    uuid.New(),
		PolicyNumber: "POL-A",
		Status:       models.PolicyStatusActive,
	}
	return f
}

func (f *fixture) addClient(name string) uuid.UUID {
	id := uuid.New()
	f.db.clients[id] = models.Client{ID: id, Name: name, IsActive: true}
	return id
}

func (f *fixture) addAffiliate(clientID uuid.UUID, ownerID *uuid.UUID) uuid.UUID {
	a := models.Affiliate{ID: uuid.New(), ClientID: clientID, Type: models.AffiliateOwner, FirstName: "A", LastName: "B", IsActive: true}
	if ownerID != nil {
		a.Type = models.AffiliateDependent
		owner := *ownerID
		a.OwnerID = &owner
	}
	f.db.affiliates[a.ID] = a
	return a.ID
}

func (f *fixture) internal(role rbac.Role) *rbac.Actor {
	return &rbac.Actor{ID: uuid.New(), Role: role}
}

func (f *fixture) clientActor(role rbac.Role, clients ...uuid.UUID) *rbac.Actor {
	return &rbac.Actor{ID: uuid.New(), Role: role, ClientIDs: clients}
}

// affiliate builds the actor for affiliate id, resolving its family the way
// the actor repository does.
func (f *fixture) affiliate(id uuid.UUID) *rbac.Actor {
	a := f.db.affiliates[id]
	anchor := &models.AffiliateAnchor{AffiliateID: a.ID, ClientID: a.ClientID, Type: a.Type}
	if a.Type == models.AffiliateOwner {
		for _, other := range f.db.affiliates {
			if other.OwnerID != nil && *other.OwnerID == a.ID {
				anchor.DependentIDs = append(anchor.DependentIDs, other.ID)
			}
		}
	}
	return &rbac.Actor{ID: uuid.New(), Role: rbac.RoleAffiliate, Affiliate: anchor}
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}
