// Package access decides, for every protected page, whether to render it or where to send the caller.
package access

import (
	"context"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/akpsi-umich/portal-backend/v1/rush"
)

// Outcome is the kind of routing decision
type Outcome string

const (
	OutcomeRender   Outcome = "render"
	OutcomeRedirect Outcome = "redirect"
)

// Decision is either Render(view) or Redirect(target)
type Decision struct {
	Outcome  Outcome
	View     string
	Target   models.Page
	Record   *models.MemberRecord
	Settings *models.RushSettings
}

// Render builds a render decision
func Render(view string, record *models.MemberRecord) Decision {
	return Decision{Outcome: OutcomeRender, View: view, Record: record}
}

// Redirect builds a redirect decision
func Redirect(target models.Page) Decision {
	return Decision{Outcome: OutcomeRedirect, Target: target}
}

// IsRedirect reports whether the caller must be sent elsewhere
func (d Decision) IsRedirect() bool {
	return d.Outcome == OutcomeRedirect
}

// RecordReader loads member records
type RecordReader interface {
	GetByUserID(ctx context.Context, userID string) (*models.MemberRecord, error)
}

// SettingsReader loads the rush settings singleton
type SettingsReader interface {
	Get(ctx context.Context) (*models.RushSettings, error)
}

// Router loads the state a decision depends on and applies Decide
type Router struct {
	records  RecordReader
	settings SettingsReader
}

// NewRouter creates a new access router
func NewRouter(records RecordReader, settings SettingsReader) *Router {
	return &Router{records: records, settings: settings}
}

// Authorize decides the outcome for a principal requesting a page. It performs no writes.
func (r *Router) Authorize(ctx context.Context, principal *idp.Principal, page models.Page) (Decision, error) {
	if principal == nil {
		return Redirect(models.PageLogin), nil
	}

	record, err := r.records.GetByUserID(ctx, principal.ID)
	if err != nil {
		if !errors.HasCode(err, errors.CodeRecordNotFound) {
			return Decision{}, err
		}
		record = nil
	}

	var settings *models.RushSettings
	if page == models.PageTracker {
		if settings, err = r.settings.Get(ctx); err != nil {
			return Decision{}, err
		}
	}

	return Decide(principal, record, settings, page), nil
}

var rushViews = map[models.Page]string{
	models.PageRushStatus:      models.ViewRushStatus,
	models.PageRushSubmit:      models.ViewRushSubmit,
	models.PageRushBid:         models.ViewRushBid,
	models.PageRushCut:         models.ViewRushCut,
	models.PageRushBidAccepted: models.ViewRushBidAccepted,
}

// Decide applies the routing rules in order: authentication, onboarding, role
// validity, then the page's own guard.
func Decide(principal *idp.Principal, record *models.MemberRecord, settings *models.RushSettings, page models.Page) Decision {
	if principal == nil {
		return Redirect(models.PageLogin)
	}

	if page == models.PageOnboarding {
		if record.HasCompletedOnboarding() {
			return Redirect(models.PageDashboard)
		}
		return Render(models.ViewOnboarding, record)
	}
	if !record.HasCompletedOnboarding() {
		return Redirect(models.PageOnboarding)
	}

	role, ok := record.ParsedRole()
	if !ok {
		return Redirect(models.PageAuthError)
	}

	switch {
	case page == models.PageDashboard:
		return Render(dashboardView(role, record), record)
	case page == models.PageProfile:
		return Render(models.ViewProfile, record)
	case page == models.PageProfileEdit:
		return Render(models.ViewProfileEdit, record)
	case page.IsRushPage():
		return rushPage(role, record, page)
	case page == models.PageTracker:
		return tracker(role, record, settings)
	}
	return Redirect(models.PageDashboard)
}

func dashboardView(role models.Role, record *models.MemberRecord) string {
	switch role {
	case models.RoleRushee:
		return models.ViewRusheeDashboard
	case models.RoleActive:
		return models.ViewActiveDashboard
	case models.RoleMemco:
		return models.ViewMemcoDashboard
	case models.RoleDirector:
		return models.ViewDirectorDashboard
	case models.RoleEboard:
		return eboardView(record.Title)
	}
	return models.ViewAuthError
}

func eboardView(rawTitle *string) string {
	title, ok := models.ParseEboardTitle(rawTitle)
	if !ok {
		return models.ViewEboardTitleError
	}
	switch title {
	case models.TitlePresident:
		return models.ViewEboardPresident
	case models.TitleMOR:
		return models.ViewEboardMOR
	case models.TitleVPInternal:
		return models.ViewEboardVPInternal
	case models.TitleVPExternal:
		return models.ViewEboardVPExternal
	case models.TitleVPFinance:
		return models.ViewEboardVPFinance
	case models.TitleVPOperations:
		return models.ViewEboardVPOperations
	}
	return models.ViewEboardTitleError
}

// rushPage lets a rushee see only the page owned by their stored status
func rushPage(role models.Role, record *models.MemberRecord, page models.Page) Decision {
	if !role.HasPermission(models.PermissionViewRushPages) {
		return Redirect(models.PageDashboard)
	}
	owned := rush.PageFor(record.Status())
	if page != owned {
		return Redirect(owned)
	}
	return Render(rushViews[page], record)
}

// tracker is open to brothers once rush has left the OPEN stage
func tracker(role models.Role, record *models.MemberRecord, settings *models.RushSettings) Decision {
	if !role.HasPermission(models.PermissionViewTracker) {
		return Redirect(models.PageDashboard)
	}
	if settings.Stage() == models.StageOpen {
		return Redirect(models.PageDashboard)
	}
	decision := Render(models.ViewTracker, record)
	decision.Settings = settings
	return decision
}
