package request

import "github.com/edvin/grantdesk/internal/n8n"

type SetEnvironment struct {
	Environment string `json:"environment" validate:"required,environment"`
}

type SetWorkflowActive struct {
	Active *bool `json:"active" validate:"required"`
}

type TriggerSearch struct {
	Terms           []string          `json:"terms" validate:"omitempty,dive,required"`
	DateRange       map[string]string `json:"dateRange"`
	Categories      []string          `json:"categories" validate:"omitempty,dive,required"`
	MinAmount       float64           `json:"minAmount" validate:"gte=0"`
	MaxAmount       float64           `json:"maxAmount" validate:"omitempty,gtefield=MinAmount"`
	Sources         []string          `json:"sources" validate:"omitempty,dive,required"`
	GeographicScope string            `json:"geographic_scope"`
}

// Params converts the request into client parameters.
func (s TriggerSearch) Params() n8n.SearchParams {
	return n8n.SearchParams{
		Terms:           s.Terms,
		DateRange:       s.DateRange,
		Categories:      s.Categories,
		MinAmount:       s.MinAmount,
		MaxAmount:       s.MaxAmount,
		Sources:         s.Sources,
		GeographicScope: s.GeographicScope,
	}
}

type AmountRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

type CreateResearch struct {
	Name            string            `json:"name" validate:"required,max=200"`
	Description     string            `json:"description" validate:"max=2000"`
	SearchTerms     []string          `json:"searchTerms" validate:"omitempty,dive,required"`
	TargetSectors   []string          `json:"targetSectors" validate:"omitempty,dive,required"`
	GeographicScope string            `json:"geographicScope"`
	AmountRange     *AmountRange      `json:"amountRange"`
	DeadlineRange   map[string]string `json:"deadlineRange"`
	Sources         []string          `json:"sources" validate:"omitempty,dive,required"`
}

// Config converts the request into a research configuration.
func (c CreateResearch) Config() n8n.ResearchConfig {
	rc := n8n.ResearchConfig{
		Name:            c.Name,
		Description:     c.Description,
		SearchTerms:     c.SearchTerms,
		TargetSectors:   c.TargetSectors,
		GeographicScope: c.GeographicScope,
		DeadlineRange:   c.DeadlineRange,
		Sources:         c.Sources,
	}
	if c.AmountRange != nil {
		rc.AmountRange = &n8n.AmountRange{Min: c.AmountRange.Min, Max: c.AmountRange.Max}
	}
	return rc
}
