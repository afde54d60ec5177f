package handlers

import (
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/gofiber/fiber/v2"
)

// MetaHandler serves the static workflow description clients render from.
type MetaHandler struct {
	limits sla.Limits
}

func NewMetaHandler(limits sla.Limits) *MetaHandler {
	return &MetaHandler{limits: limits}
}

type MetaEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MetaWorkflow struct {
	Kind     string     `json:"kind"`
	Initial  string     `json:"initial"`
	Statuses []string   `json:"statuses"`
	Terminal []string   `json:"terminal"`
	Edges    []MetaEdge `json:"edges"`
}

func workflow(kind statemachine.EntityKind) MetaWorkflow {
	w := MetaWorkflow{
		Kind:     string(kind),
		Initial:  statemachine.InitialStatus(kind),
		Statuses: statemachine.Statuses(kind),
		Terminal: statemachine.Terminal(kind),
	}
	for _, e := range statemachine.Edges(kind) {
		w.Edges = append(w.Edges, MetaEdge{From: e.From, To: e.To})
	}
	return w
}

func (h *MetaHandler) GetWorkflows(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: []MetaWorkflow{
		workflow(statemachine.KindClaim),
		workflow(statemachine.KindPolicy),
	}})
}

// GetSLALimits returns the business-day limit per claim status.
func (h *MetaHandler) GetSLALimits(c *fiber.Ctx) error {
	out := make(map[string]int, len(h.limits))
	for st, days := range h.limits {
		out[string(st)] = days
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}
