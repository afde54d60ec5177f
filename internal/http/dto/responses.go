package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// ListResponse wraps a page of results.
type ListResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type MeResponse struct {
	ID           string   `json:"id"`
	Role         string   `json:"role"`
	ClientIDs    []string `json:"client_ids,omitempty"`
	AffiliateID  string   `json:"affiliate_id,omitempty"`
	DependentIDs []string `json:"dependent_ids,omitempty"`
}
