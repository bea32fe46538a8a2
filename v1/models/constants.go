package models

import "strings"

// RusheeStatus is the position of an applicant in the rush workflow
type RusheeStatus string

const (
	StatusNotSubmitted RusheeStatus = "APPLICATION_NOT_SUBMITTED"
	StatusSubmitted    RusheeStatus = "APPLICATION_SUBMITTED"
	StatusTop90        RusheeStatus = "TOP90"
	StatusTop50        RusheeStatus = "TOP50"
	StatusBid          RusheeStatus = "BID"
	StatusBidAccepted  RusheeStatus = "BID_ACCEPTED"
	StatusCut          RusheeStatus = "CUT"
)

// RusheeStatuses lists every recognized status in workflow order
var RusheeStatuses = []RusheeStatus{
	StatusNotSubmitted, StatusSubmitted, StatusTop90, StatusTop50, StatusBid, StatusBidAccepted, StatusCut,
}

// NormalizeRusheeStatus maps a stored value onto a status. Null and blank are
// APPLICATION_NOT_SUBMITTED. Unrecognized values are returned unchanged and
// fail IsValid.
func NormalizeRusheeStatus(raw *string) RusheeStatus {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return StatusNotSubmitted
	}
	return RusheeStatus(strings.ToUpper(strings.TrimSpace(*raw)))
}

// IsValid checks the status against the recognized set
func (s RusheeStatus) IsValid() bool {
	for _, status := range RusheeStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RusheeStatus) IsTerminal() bool {
	return s == StatusCut || s == StatusBidAccepted
}

// HasSubmitted reports whether an application is on file
func (s RusheeStatus) HasSubmitted() bool {
	return s != StatusNotSubmitted
}

// ReachedTop90 is derived from the status: anyone at TOP90 or beyond on the main line.
func (s RusheeStatus) ReachedTop90() bool {
	return s == StatusTop90 || s.ReachedTop50()
}

// ReachedTop50 is derived from the status.
func (s RusheeStatus) ReachedTop50() bool {
	return s == StatusTop50 || s.Bidded()
}

// Bidded is derived from the status.
func (s RusheeStatus) Bidded() bool {
	return s == StatusBid || s == StatusBidAccepted
}

// RushStage is the organization-wide recruitment phase
type RushStage string

const (
	StageOpen        RushStage = "OPEN"
	StageTop90       RushStage = "TOP90"
	StageTop50       RushStage = "TOP50"
	StageBidsOffered RushStage = "BIDS_OFFERED"
)

// Column name constants for the members table, used by allow-lists and filters.
const (
	ColumnRusheeStatus = "rushee_status"
	ColumnRole         = "role"
	ColumnHeadshotPath = "headshot_path"
	ColumnCreatedAt    = "created_at"
)

// Field limits
const (
	MinHighSchoolGradYear = 2000
	MaxHighSchoolGradYear = 2050
	MaxHeadshotBytes      = 5 * 1024 * 1024
	MaxResumeBytes        = 10 * 1024 * 1024
)
