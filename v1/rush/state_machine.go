// Package rush defines the applicant lifecycle: which page each status owns,
// which transitions are legal and how intake forms are validated.
package rush

import (
	"github.com/akpsi-umich/portal-backend/v1/models"
)

// Transition names the action that moves a rushee between statuses
type Transition string

const (
	TransitionSubmit  Transition = "submit"
	TransitionAdvance Transition = "advance"
	TransitionCut     Transition = "cut"
	TransitionAccept  Transition = "accept"
)

type edge struct {
	to     models.RusheeStatus
	action Transition
}

var transitions = map[models.RusheeStatus][]edge{
	models.StatusNotSubmitted: {{models.StatusSubmitted, TransitionSubmit}},
	models.StatusSubmitted:    {{models.StatusTop90, TransitionAdvance}, {models.StatusCut, TransitionCut}},
	models.StatusTop90:        {{models.StatusTop50, TransitionAdvance}, {models.StatusCut, TransitionCut}},
	models.StatusTop50:        {{models.StatusBid, TransitionAdvance}, {models.StatusCut, TransitionCut}},
	models.StatusBid:          {{models.StatusBidAccepted, TransitionAccept}},
}

var statusPages = map[models.RusheeStatus]models.Page{
	models.StatusNotSubmitted: models.PageRushSubmit,
	models.StatusSubmitted:    models.PageRushStatus,
	models.StatusTop90:        models.PageRushStatus,
	models.StatusTop50:        models.PageRushStatus,
	models.StatusBid:          models.PageRushBid,
	models.StatusCut:          models.PageRushCut,
	models.StatusBidAccepted:  models.PageRushBidAccepted,
}

// PageFor returns the single rush page a rushee with the given status may view.
// Unrecognized statuses land on the status page, which has no actions.
func PageFor(status models.RusheeStatus) models.Page {
	if page, ok := statusPages[status]; ok {
		return page
	}
	return models.PageRushStatus
}

// IsLegalTransition reports whether from -> to is an edge of the lifecycle
func IsLegalTransition(from, to models.RusheeStatus) bool {
	_, ok := TransitionFor(from, to)
	return ok
}

// TransitionFor returns the action that performs from -> to
func TransitionFor(from, to models.RusheeStatus) (Transition, bool) {
	for _, e := range transitions[from] {
		if e.to == to {
			return e.action, true
		}
	}
	return "", false
}

// NextStatuses lists the statuses reachable from the given one
func NextStatuses(from models.RusheeStatus) []models.RusheeStatus {
	var next []models.RusheeStatus
	for _, e := range transitions[from] {
		next = append(next, e.to)
	}
	return next
}

// IsPrivileged reports whether the transition is performed by tracker roles rather than the rushee
func (t Transition) IsPrivileged() bool {
	return t == TransitionAdvance || t == TransitionCut
}

// ProgressStep is one stage of the status page timeline
type ProgressStep struct {
	Status   models.RusheeStatus `json:"status"`
	Label    string              `json:"label"`
	Complete bool                `json:"complete"`
	Current  bool                `json:"current"`
}

var progressSteps = []struct {
	status models.RusheeStatus
	label  string
}{
	{models.StatusSubmitted, "Application Submitted"},
	{models.StatusTop90, "Closed Rush 1st Round"},
	{models.StatusTop50, "Closed Rush 2nd Round"},
	{models.StatusBid, "Final rounds"},
}

// Progress builds the four-step timeline shown on the status page
func Progress(status models.RusheeStatus) []ProgressStep {
	current := -1
	for i, step := range progressSteps {
		if step.status == status {
			current = i
		}
	}
	if status.Bidded() {
		current = len(progressSteps) - 1
	}

	steps := make([]ProgressStep, 0, len(progressSteps))
	for i, step := range progressSteps {
		steps = append(steps, ProgressStep{
			Status:   step.status,
			Label:    step.label,
			Complete: i <= current,
			Current:  i == current,
		})
	}
	return steps
}
