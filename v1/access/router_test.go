package access

import (
	"context"
	"fmt"
	"testing"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var principal = &idp.Principal{ID: "user-1", Email: "jane@umich.edu"}

func strPtr(s string) *string {
	return &s
}

func member(role string, status string) *models.MemberRecord {
	record := &models.MemberRecord{UserID: "user-1", Role: role, FullName: strPtr("Jane Doe")}
	if status != "" {
		record.RusheeStatus = strPtr(status)
	}
	return record
}

func settingsAt(stage models.RushStage) *models.RushSettings {
	return &models.RushSettings{ID: models.RushSettingsID, CurrentStage: string(stage)}
}

func TestDecide_Order(t *testing.T) {
	tests := []struct {
		name      string
		principal *idp.Principal
		record    *models.MemberRecord
		page      models.Page
		want      Decision
	}{
		{"No principal", nil, nil, models.PageDashboard, Redirect(models.PageLogin)},
		{"No principal on onboarding", nil, nil, models.PageOnboarding, Redirect(models.PageLogin)},
		{"No record", principal, nil, models.PageDashboard, Redirect(models.PageOnboarding)},
		{"No full name", principal, &models.MemberRecord{Role: "rushee"}, models.PageProfile, Redirect(models.PageOnboarding)},
		{"Blank full name", principal, &models.MemberRecord{Role: "rushee", FullName: strPtr("  ")}, models.PageRushSubmit, Redirect(models.PageOnboarding)},
		{"Onboarding without record", principal, nil, models.PageOnboarding, Render(models.ViewOnboarding, nil)},
		{"Onboarding already done", principal, member("rushee", ""), models.PageOnboarding, Redirect(models.PageDashboard)},
		{"Unknown role", principal, member("alumni", ""), models.PageDashboard, Redirect(models.PageAuthError)},
		{"Unknown role on rush page", principal, member("", ""), models.PageRushStatus, Redirect(models.PageAuthError)},
		{"Unknown page", principal, member("active", ""), models.Page("/members"), Redirect(models.PageDashboard)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.principal, tt.record, nil, tt.page))
		})
	}
}

func TestDecide_Dashboard(t *testing.T) {
	tests := []struct {
		role  string
		title *string
		view  string
	}{
		{"rushee", nil, models.ViewRusheeDashboard},
		{"RUSHEE", nil, models.ViewRusheeDashboard},
		{"active", nil, models.ViewActiveDashboard},
		{"memco", nil, models.ViewMemcoDashboard},
		{"Director", nil, models.ViewDirectorDashboard},
		{"eboard", strPtr("President"), models.ViewEboardPresident},
		{"eboard", strPtr("mor"), models.ViewEboardMOR},
		{"eboard", strPtr("VP Internal"), models.ViewEboardVPInternal},
		{"eboard", strPtr("VP External"), models.ViewEboardVPExternal},
		{"eboard", strPtr("VP Finance"), models.ViewEboardVPFinance},
		{"eboard", strPtr(" vp  operations "), models.ViewEboardVPOperations},
		{"eboard", strPtr("Treasurer"), models.ViewEboardTitleError},
		{"eboard", nil, models.ViewEboardTitleError},
	}

	for _, tt := range tests {
		name := tt.role
		if tt.title != nil {
			name += "/" + *tt.title
		}
		t.Run(name, func(t *testing.T) {
			record := member(tt.role, "")
			record.Title = tt.title

			decision := Decide(principal, record, nil, models.PageDashboard)
			assert.Equal(t, OutcomeRender, decision.Outcome)
			assert.Equal(t, tt.view, decision.View)
			assert.Same(t, record, decision.Record)
		})
	}
}

func TestDecide_RushPagesMatchStatusExactly(t *testing.T) {
	owned := map[models.RusheeStatus]models.Page{
		models.StatusNotSubmitted: models.PageRushSubmit,
		models.StatusSubmitted:    models.PageRushStatus,
		models.StatusTop90:        models.PageRushStatus,
		models.StatusTop50:        models.PageRushStatus,
		models.StatusBid:          models.PageRushBid,
		models.StatusBidAccepted:  models.PageRushBidAccepted,
		models.StatusCut:          models.PageRushCut,
	}
	rushPages := []models.Page{
		models.PageRushStatus, models.PageRushSubmit, models.PageRushBid, models.PageRushCut, models.PageRushBidAccepted,
	}

	for status, ownPage := range owned {
		for _, page := range rushPages {
			t.Run(fmt.Sprintf("%s requests %s", status, page), func(t *testing.T) {
				decision := Decide(principal, member("rushee", string(status)), nil, page)
				if page == ownPage {
					assert.Equal(t, OutcomeRender, decision.Outcome)
					assert.Equal(t, rushViews[page], decision.View)
					return
				}
				assert.Equal(t, Redirect(ownPage), decision)
			})
		}
	}

	t.Run("Unset status routes like not submitted", func(t *testing.T) {
		decision := Decide(principal, member("rushee", ""), nil, models.PageRushBid)
		assert.Equal(t, Redirect(models.PageRushSubmit), decision)
	})

	t.Run("Unrecognized status lands on the status page", func(t *testing.T) {
		decision := Decide(principal, member("rushee", "WAITLIST"), nil, models.PageRushStatus)
		assert.Equal(t, OutcomeRender, decision.Outcome)
	})

	t.Run("Non-rushees go to the dashboard", func(t *testing.T) {
		for _, role := range []string{"active", "memco", "director", "eboard"} {
			decision := Decide(principal, member(role, "BID"), nil, models.PageRushBid)
			assert.Equal(t, Redirect(models.PageDashboard), decision, role)
		}
	})
}

func TestDecide_Tracker(t *testing.T) {
	tests := []struct {
		name  string
		role  string
		stage models.RushStage
		want  Outcome
	}{
		{"Active after open", "active", models.StageTop90, OutcomeRender},
		{"Memco after open", "memco", models.StageTop50, OutcomeRender},
		{"Director after open", "director", models.StageBidsOffered, OutcomeRender},
		{"Eboard after open", "eboard", models.StageTop90, OutcomeRender},
		{"Closed during open rush", "eboard", models.StageOpen, OutcomeRedirect},
		{"Rushee never", "rushee", models.StageBidsOffered, OutcomeRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Decide(principal, member(tt.role, ""), settingsAt(tt.stage), models.PageTracker)
			assert.Equal(t, tt.want, decision.Outcome)
			if tt.want == OutcomeRedirect {
				assert.Equal(t, models.PageDashboard, decision.Target)
				return
			}
			assert.Equal(t, models.ViewTracker, decision.View)
			assert.Equal(t, tt.stage, decision.Settings.Stage())
		})
	}

	t.Run("Missing settings read as open", func(t *testing.T) {
		decision := Decide(principal, member("active", ""), nil, models.PageTracker)
		assert.Equal(t, Redirect(models.PageDashboard), decision)
	})
}

type fakeRecords struct {
	records map[string]*models.MemberRecord
	err     error
}

func (f *fakeRecords) GetByUserID(ctx context.Context, userID string) (*models.MemberRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if record, ok := f.records[userID]; ok {
		return record, nil
	}
	return nil, errors.NotFoundError("Member record")
}

type fakeSettings struct {
	settings *models.RushSettings
	calls    int
}

func (f *fakeSettings) Get(ctx context.Context) (*models.RushSettings, error) {
	f.calls++
	return f.settings, nil
}

func TestRouter_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing record is treated as incomplete", func(t *testing.T) {
		router := NewRouter(&fakeRecords{}, &fakeSettings{})
		decision, err := router.Authorize(ctx, principal, models.PageDashboard)
		require.NoError(t, err)
		assert.Equal(t, Redirect(models.PageOnboarding), decision)
	})

	t.Run("Settings are only read for the tracker", func(t *testing.T) {
		settings := &fakeSettings{settings: settingsAt(models.StageTop90)}
		router := NewRouter(&fakeRecords{records: map[string]*models.MemberRecord{"user-1": member("active", "")}}, settings)

		_, err := router.Authorize(ctx, principal, models.PageDashboard)
		require.NoError(t, err)
		assert.Equal(t, 0, settings.calls)

		decision, err := router.Authorize(ctx, principal, models.PageTracker)
		require.NoError(t, err)
		assert.Equal(t, models.ViewTracker, decision.View)
		assert.Equal(t, 1, settings.calls)
	})

	t.Run("Store failure is returned", func(t *testing.T) {
		router := NewRouter(&fakeRecords{err: errors.DatabaseError("get", assert.AnError)}, &fakeSettings{})
		_, err := router.Authorize(ctx, principal, models.PageDashboard)
		assert.Error(t, err)
	})

	t.Run("No principal", func(t *testing.T) {
		router := NewRouter(&fakeRecords{}, &fakeSettings{})
		decision, err := router.Authorize(ctx, nil, models.PageProfile)
		require.NoError(t, err)
		assert.Equal(t, Redirect(models.PageLogin), decision)
	})
}
