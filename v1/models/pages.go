package models

// Page identifies a routable view by its path
type Page string

const (
	PageLogin           Page = "/auth/login"
	PageOnboarding      Page = "/auth/signup"
	PageAuthError       Page = "/auth/error"
	PageDashboard       Page = "/dashboard"
	PageProfile         Page = "/profile"
	PageProfileEdit     Page = "/profile/edit"
	PageRushStatus      Page = "/rush/status"
	PageRushSubmit      Page = "/rush/submit"
	PageRushBid         Page = "/rush/bid"
	PageRushCut         Page = "/rush/cut"
	PageRushBidAccepted Page = "/rush/bid-accepted"
	PageTracker         Page = "/rush/tracker"
)

// ProtectedPages are the pages that go through the access router
var ProtectedPages = []Page{
	PageOnboarding, PageDashboard, PageProfile, PageProfileEdit,
	PageRushStatus, PageRushSubmit, PageRushBid, PageRushCut, PageRushBidAccepted,
	PageTracker,
}

// IsRushPage reports whether the page belongs to the applicant workflow
func (p Page) IsRushPage() bool {
	switch p {
	case PageRushStatus, PageRushSubmit, PageRushBid, PageRushCut, PageRushBidAccepted:
		return true
	}
	return false
}

// Path returns the URL path of the page
func (p Page) Path() string {
	return string(p)
}

// View names rendered by the access router
const (
	ViewRusheeDashboard    = "rushee_dashboard"
	ViewActiveDashboard    = "active_dashboard"
	ViewMemcoDashboard     = "memco_dashboard"
	ViewDirectorDashboard  = "director_dashboard"
	ViewEboardPresident    = "eboard_president"
	ViewEboardMOR          = "eboard_mor"
	ViewEboardVPInternal   = "eboard_vp_internal"
	ViewEboardVPExternal   = "eboard_vp_external"
	ViewEboardVPFinance    = "eboard_vp_finance"
	ViewEboardVPOperations = "eboard_vp_operations"
	ViewEboardTitleError   = "eboard_title_error"
	ViewOnboarding         = "onboarding"
	ViewProfile            = "profile"
	ViewProfileEdit        = "profile_edit"
	ViewRushStatus         = "rush_status"
	ViewRushSubmit         = "rush_submit"
	ViewRushBid            = "rush_bid"
	ViewRushCut            = "rush_cut"
	ViewRushBidAccepted    = "rush_bid_accepted"
	ViewTracker            = "rush_tracker"
	ViewAuthError          = "auth_error"
	ViewLogin              = "login"
)
