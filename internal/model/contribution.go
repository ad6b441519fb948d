package model

import "time"

// ContributionStatus is the lifecycle state of a community contribution.
type ContributionStatus string

const (
	StatusAvailable   ContributionStatus = "available"
	StatusClaimed     ContributionStatus = "claimed"
	StatusCollected   ContributionStatus = "collected"
	StatusUnavailable ContributionStatus = "unavailable"
)

// CanTransition reports whether the state machine allows moving from s to next.
//
//	available -> claimed -> collected
//	available -> unavailable
func (s ContributionStatus) CanTransition(next ContributionStatus) bool {
	switch s {
	case StatusAvailable:
		return next == StatusClaimed || next == StatusUnavailable
	case StatusClaimed:
		return next == StatusCollected
	}
	return false
}

// ContributionExpiringWindow flags offers that lapse within a day.
const ContributionExpiringWindow = 24 * time.Hour

type Contribution struct {
	ID                 string             `json:"id"`
	ContributorID      string             `json:"contributor_id"`
	SourcePantryItemID *string            `json:"source_pantry_item_id,omitempty"`
	Name               string             `json:"name"`
	Quantity           int                `json:"quantity"`
	Unit               Unit               `json:"unit"`
	Category           Category           `json:"category,omitempty"`
	Description        string             `json:"description"`
	Location           string             `json:"location"`
	AvailableUntil     *time.Time         `json:"available_until,omitempty"`
	Status             ContributionStatus `json:"status"`
	ClaimedBy          *string            `json:"claimed_by,omitempty"`
	ClaimedAt          *time.Time         `json:"claimed_at,omitempty"`
	CollectedAt        *time.Time         `json:"collected_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Expired reports whether the offer's availability window has passed.
func (c Contribution) Expired(now time.Time) bool {
	return c.AvailableUntil != nil && !c.AvailableUntil.After(now)
}

// ExpiringSoon reports whether an unexpired offer lapses within ContributionExpiringWindow.
func (c Contribution) ExpiringSoon(now time.Time) bool {
	if c.AvailableUntil == nil || c.Expired(now) {
		return false
	}
	return c.AvailableUntil.Sub(now) <= ContributionExpiringWindow
}
