package services

import (
	"context"
	"strings"

	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"gorm.io/gorm"
)

// SettingsService reads the rush settings singleton
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the settings row. A missing row reads as OPEN.
func (s *SettingsService) Get(ctx context.Context) (*models.RushSettings, error) {
	var settings models.RushSettings
	if err := s.db.WithContext(ctx).First(&settings, models.RushSettingsID).Error; err != nil {
		apiErr := errors.HandleDatabaseError(err, "get rush settings")
		if apiErr.Code == errors.CodeRecordNotFound {
			return &models.RushSettings{ID: models.RushSettingsID, CurrentStage: string(models.StageOpen)}, nil
		}
		return nil, apiErr
	}
	return &settings, nil
}

// TrackerTab is one list of the recruitment tracker
type TrackerTab string

const (
	TabApplied TrackerTab = "APPLIED"
	TabCut     TrackerTab = "CUT"
	TabTop90   TrackerTab = "TOP90"
	TabTop50   TrackerTab = "TOP50"
	TabBidded  TrackerTab = "BIDDED"
)

// TrackerTabs lists the tabs in display order
var TrackerTabs = []TrackerTab{TabApplied, TabCut, TabTop90, TabTop50, TabBidded}

var tabStatuses = map[TrackerTab][]models.RusheeStatus{
	TabApplied: {models.StatusSubmitted, models.StatusCut, models.StatusTop90, models.StatusTop50, models.StatusBid, models.StatusBidAccepted},
	TabCut:     {models.StatusCut},
	TabTop90:   {models.StatusTop90, models.StatusTop50, models.StatusBid, models.StatusBidAccepted},
	TabTop50:   {models.StatusTop50, models.StatusBid, models.StatusBidAccepted},
	TabBidded:  {models.StatusBid, models.StatusBidAccepted},
}

// IsAccessible reports whether the tab is open at the given stage
func (t TrackerTab) IsAccessible(stage models.RushStage) bool {
	switch t {
	case TabApplied:
		return true
	case TabCut, TabTop90:
		return stage == models.StageTop90 || stage == models.StageTop50 || stage == models.StageBidsOffered
	case TabTop50:
		return stage == models.StageTop50 || stage == models.StageBidsOffered
	case TabBidded:
		return stage == models.StageBidsOffered
	}
	return false
}

// AvailableTabs returns the tabs open at the given stage
func AvailableTabs(stage models.RushStage) []TrackerTab {
	var tabs []TrackerTab
	for _, tab := range TrackerTabs {
		if tab.IsAccessible(stage) {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}

// ResolveTab returns the requested tab when open, otherwise the first open tab
func ResolveTab(requested string, stage models.RushStage) TrackerTab {
	tab := TrackerTab(strings.ToUpper(strings.TrimSpace(requested)))
	if _, known := tabStatuses[tab]; known && tab.IsAccessible(stage) {
		return tab
	}
	return AvailableTabs(stage)[0]
}

// TrackerPage is the data of the tracker view
type TrackerPage struct {
	Stage   models.RushStage              `json:"stage"`
	Tab     TrackerTab                    `json:"tab"`
	Tabs    []TrackerTab                  `json:"tabs"`
	Rushees []models.MemberRecordResponse `json:"rushees"`
}

// TrackerService lists rushees for the recruitment tracker
type TrackerService struct {
	members  *MemberService
	settings *SettingsService
}

// NewTrackerService creates a new tracker service
func NewTrackerService(members *MemberService, settings *SettingsService) *TrackerService {
	return &TrackerService{members: members, settings: settings}
}

// List returns the rushees of a tab, newest first. Progress tabs use the flags derived from status.
func (s *TrackerService) List(ctx context.Context, requestedTab string) (*TrackerPage, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	stage := settings.Stage()
	tab := ResolveTab(requestedTab, stage)

	records, err := s.members.ListByFilter(ctx, MemberFilter{
		Role:     models.RoleRushee,
		Statuses: tabStatuses[tab],
	}, models.ColumnCreatedAt+" DESC")
	if err != nil {
		return nil, err
	}

	rushees := make([]models.MemberRecordResponse, 0, len(records))
	for i := range records {
		rushees = append(rushees, records[i].ToResponse())
	}
	return &TrackerPage{Stage: stage, Tab: tab, Tabs: AvailableTabs(stage), Rushees: rushees}, nil
}
