package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of an ad campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignArchived  CampaignStatus = "archived"
	CampaignDeleted   CampaignStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted, CampaignArchived, CampaignDeleted:
		return true
	}
	return false
}

// LearnableStatuses are the statuses whose campaigns feed organization
// pattern learning.
var LearnableStatuses = []CampaignStatus{CampaignActive, CampaignPaused, CampaignCompleted}

// ForecastableStatuses are the statuses included in an organization forecast.
var ForecastableStatuses = []CampaignStatus{CampaignActive, CampaignPaused}

// Campaign is an advertising campaign on one platform with one objective.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organization_id" db:"organization_id"`
	Name           string         `json:"name" db:"name"`
	Platform       string         `json:"platform" db:"platform"`
	Objective      string         `json:"objective" db:"objective"`
	Status         CampaignStatus `json:"status" db:"status"`
	Budget         float64        `json:"budget" db:"budget"`
	DailyBudget    *float64       `json:"daily_budget" db:"daily_budget"`
	BidStrategy    string         `json:"bid_strategy" db:"bid_strategy"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// DailyBudgetOrZero returns the configured daily budget, or 0 when unset.
func (c *Campaign) DailyBudgetOrZero() float64 {
	if c.DailyBudget == nil {
		return 0
	}
	return *c.DailyBudget
}

// DailyBudgetOrSpread returns the daily budget, falling back to the total
// budget spread over 30 days.
func (c *Campaign) DailyBudgetOrSpread() float64 {
	if c.DailyBudget != nil {
		return *c.DailyBudget
	}
	return c.Budget / 30
}

// AgeDays returns the number of whole days between creation and now.
// A campaign without a creation time is zero days old.
func (c *Campaign) AgeDays(now time.Time) int {
	if c.CreatedAt.IsZero() || now.Before(c.CreatedAt) {
		return 0
	}
	return int(now.Sub(c.CreatedAt).Hours() / 24)
}

// PlatformOrUnknown returns the platform name used for grouping.
func (c *Campaign) PlatformOrUnknown() string {
	if c.Platform == "" {
		return "unknown"
	}
	return c.Platform
}

// ObjectiveOrUnknown returns the objective name used for grouping.
func (c *Campaign) ObjectiveOrUnknown() string {
	if c.Objective == "" {
		return "unknown"
	}
	return c.Objective
}
