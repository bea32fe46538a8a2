package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/shared/audit"
	"github.com/akpsi-umich/portal-backend/shared/utils"
	"github.com/akpsi-umich/portal-backend/v1/access"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/akpsi-umich/portal-backend/v1/rush"
	"github.com/akpsi-umich/portal-backend/v1/services"
	"github.com/akpsi-umich/portal-backend/v1/storage"
	v1utils "github.com/akpsi-umich/portal-backend/v1/utils"

	"gorm.io/gorm"
)

const multipartMemory = 1 << 20

// PageResponse is the body of every rendered page
type PageResponse struct {
	View string      `json:"view"`
	Data interface{} `json:"data,omitempty"`
}

// V1Handler handles the portal pages and actions
type V1Handler struct {
	router         *access.Router
	profileService *services.ProfileService
	rushService    *services.RushService
	trackerService *services.TrackerService
	fileService    *services.FileService
}

// NewV1Handler creates a new V1 handler
func NewV1Handler(db *gorm.DB, store storage.ObjectStore, auditor audit.Auditor) *V1Handler {
	members := services.NewMemberService(db)
	settings := services.NewSettingsService(db)

	return &V1Handler{
		router:         access.NewRouter(members, settings),
		profileService: services.NewProfileService(members, auditor),
		rushService:    services.NewRushService(members, auditor),
		trackerService: services.NewTrackerService(members, settings),
		fileService:    services.NewFileService(members, store, auditor),
	}
}

// SetupV1Routes configures all portal routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	// Onboarding and profile
	mux.Handle("/auth/signup", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleOnboarding)))
	mux.Handle("/dashboard", utils.PanicRecoveryMiddleware(h.page(models.PageDashboard)))
	mux.Handle("/profile", utils.PanicRecoveryMiddleware(h.page(models.PageProfile)))
	mux.Handle("/profile/edit", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleProfileEdit)))

	// Rush workflow
	mux.Handle("/rush/status", utils.PanicRecoveryMiddleware(h.page(models.PageRushStatus)))
	mux.Handle("/rush/submit", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleRushSubmit)))
	mux.Handle("/rush/bid", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleRushBid)))
	mux.Handle("/rush/cut", utils.PanicRecoveryMiddleware(h.page(models.PageRushCut)))
	mux.Handle("/rush/bid-accepted", utils.PanicRecoveryMiddleware(h.page(models.PageRushBidAccepted)))

	// Tracker
	mux.Handle("/rush/tracker", utils.PanicRecoveryMiddleware(h.page(models.PageTracker)))
	mux.Handle("/rush/tracker/advance", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAdvance)))

	// Files
	mux.Handle("/files/headshot", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleHeadshot)))
	mux.Handle("/files/resume", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleResume)))
}

// page serves a GET-only protected page
func (h *V1Handler) page(page models.Page) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.renderPage(w, r, page)
	})
}

func (h *V1Handler) renderPage(w http.ResponseWriter, r *http.Request, page models.Page) {
	decision, err := h.router.Authorize(r.Context(), v1utils.OptionalPrincipal(r), page)
	if err != nil {
		respondWithAPIError(w, err)
		return
	}
	if decision.IsRedirect() {
		http.Redirect(w, r, decision.Target.Path(), http.StatusFound)
		return
	}

	data, err := h.viewData(r, decision)
	if err != nil {
		respondWithAPIError(w, err)
		return
	}
	respondWithView(w, decision.View, data)
}

func (h *V1Handler) viewData(r *http.Request, decision access.Decision) (interface{}, error) {
	var record *models.MemberRecordResponse
	if decision.Record != nil {
		response := decision.Record.ToResponse()
		record = &response
	}

	switch decision.View {
	case models.ViewRushStatus:
		return map[string]interface{}{
			"record":   record,
			"progress": rush.Progress(decision.Record.Status()),
		}, nil
	case models.ViewRushSubmit:
		return map[string]interface{}{
			"record":   record,
			"colleges": rush.Colleges,
		}, nil
	case models.ViewTracker:
		page, err := h.trackerService.List(r.Context(), r.URL.Query().Get("tab"))
		if err != nil {
			return nil, err
		}
		return page, nil
	}
	if record == nil {
		return nil, nil
	}
	return record, nil
}

func (h *V1Handler) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.renderPage(w, r, models.PageOnboarding)
	case http.MethodPost:
		principal, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req models.OnboardingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondWithAction(w, r)(h.profileService.CompleteOnboarding(r.Context(), *principal, req))
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.renderPage(w, r, models.PageProfileEdit)
	case http.MethodPost:
		principal, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req models.UpdateProfileRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondWithAction(w, r)(h.profileService.UpdateProfile(r.Context(), principal.ID, req))
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) handleRushSubmit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.renderPage(w, r, models.PageRushSubmit)
	case http.MethodPost:
		principal, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req models.RushApplicationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondWithAction(w, r)(h.rushService.Submit(r.Context(), principal.ID, req))
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) handleRushBid(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.renderPage(w, r, models.PageRushBid)
	case http.MethodPost:
		principal, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		respondWithAction(w, r)(h.rushService.AcceptBid(r.Context(), principal.ID))
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req models.AdvanceRusheeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondWithAction(w, r)(h.rushService.Advance(r.Context(), principal.ID, req))
}

func (h *V1Handler) handleHeadshot(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listFiles(w, r, principal.ID, storage.KindHeadshot)
	case http.MethodPost:
		file, ok := readUpload(w, r, models.MaxHeadshotBytes)
		if !ok {
			return
		}
		respondWithFile(w)(h.fileService.UploadHeadshot(r.Context(), *principal, file))
	case http.MethodDelete:
		respondWithFile(w)(h.fileService.DeleteHeadshot(r.Context(), principal.ID, r.URL.Query().Get("url")))
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listFiles(w, r, principal.ID, storage.KindResume)
	case http.MethodPost:
		file, ok := readUpload(w, r, models.MaxResumeBytes)
		if !ok {
			return
		}
		respondWithFile(w)(h.fileService.UploadResume(r.Context(), principal.ID, file))
	case http.MethodDelete:
		respondWithFile(w)(h.fileService.DeleteResume(r.Context(), principal.ID, r.URL.Query().Get("url")))
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) listFiles(w http.ResponseWriter, r *http.Request, userID string, kind storage.Kind) {
	locators, err := h.fileService.ListFiles(r.Context(), userID, kind)
	if err != nil {
		respondWithAPIError(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, map[string]interface{}{"files": locators})
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (*idp.Principal, bool) {
	principal, err := v1utils.RequirePrincipal(r)
	if err != nil {
		utils.RespondWithCodedError(w, http.StatusUnauthorized, errors.CodeUnauthenticated, "Authentication required")
		return nil, false
	}
	return principal, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondWithCodedError(w, http.StatusBadRequest, errors.CodeValidationFailed, "Invalid request body")
		return false
	}
	return true
}

// readUpload reads the "file" part of a multipart form. The body is capped a
// little above the kind's limit so storage.Validate reports the size error.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (storage.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		utils.RespondWithCodedError(w, http.StatusRequestEntityTooLarge, errors.CodeFileTooLarge, "File is too large or malformed")
		return storage.File{}, false
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithCodedError(w, http.StatusBadRequest, errors.CodeValidationFailed, "File is required")
		return storage.File{}, false
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		utils.RespondWithCodedError(w, http.StatusBadRequest, errors.CodeValidationFailed, "Failed to read file")
		return storage.File{}, false
	}
	return storage.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func respondWithView(w http.ResponseWriter, view string, data interface{}) {
	utils.RespondWithSuccess(w, http.StatusOK, PageResponse{View: view, Data: data})
}

// respondWithAction redirects on success and maps failures onto their HTTP status
func respondWithAction(w http.ResponseWriter, r *http.Request) func(*models.ActionResult, error) {
	return func(result *models.ActionResult, err error) {
		if err != nil {
			respondWithAPIError(w, err)
			return
		}
		if result.Redirect != "" {
			http.Redirect(w, r, result.Redirect, http.StatusFound)
			return
		}
		utils.RespondWithSuccess(w, http.StatusOK, result)
	}
}

func respondWithFile(w http.ResponseWriter) func(*services.FileResult, error) {
	return func(result *services.FileResult, err error) {
		if err != nil {
			respondWithAPIError(w, err)
			return
		}
		utils.RespondWithSuccess(w, http.StatusOK, result)
	}
}

func respondWithAPIError(w http.ResponseWriter, err error) {
	apiErr := errors.GetAPIError(err)
	if apiErr == nil {
		slog.Error("Unhandled error", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.Error("Request failed", "code", apiErr.Code, "error", err)
	}
	utils.RespondWithCodedError(w, apiErr.HTTPStatus, apiErr.Code, apiErr.Message)
}
