package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
	"github.com/aussiebroadwan/payslip/pkg/httpx"
	"github.com/aussiebroadwan/payslip/pkg/idx"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

const (
	maxUploadSize   = 10 << 20
	maxFormMemory   = 2 << 20
	maxHistoryLimit = 100
)

// PayslipSubmitHandler forwards the payslip form to the API on behalf of the
// signed-in viewer.
type PayslipSubmitHandler struct {
	Client         *portalsdk.SDKClient
	Render         RenderFunc
	PayslipService *service.PayslipService
	CSRFService    *service.CSRFService
}

// ServeHTTP godoc
//
//	@Summary		Send a payslip
//	@Description	Forwards a payslip file to the payslip API, which emails it to the recipient.
//	@Description	Browsers get the form page back with the outcome. Clients sending
//	@Description	"Accept: application/json" get a DispatchResponse instead.
//	@Description
//	@Description	Unauthenticated callers are redirected to the API's login page.
//	@Tags			Payslips
//	@Accept			multipart/form-data
//	@Produce		json
//	@Produce		html
//	@Param			email		formData	string						true	"Recipient email address"
//	@Param			payslip		formData	file						true	"Payslip file"
//	@Param			csrf_token	formData	string						true	"Form token issued with the page"
//	@Success		200			{object}	portalsdk.DispatchResponse	"Sent"
//	@Failure		400			{object}	portalsdk.ErrorResponse		"Invalid form"
//	@Failure		403			{object}	portalsdk.ErrorResponse		"Missing or invalid form token"
//	@Failure		502			{object}	portalsdk.DispatchResponse	"Payslip API unreachable or rejected the request"
//	@Router			/generate-payslips [post]
func (h *PayslipSubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	store := bootstrapPage(w, r, h.Client)
	page := newPage("generate-payslips", store)

	user := page.Auth.User
	if user == nil {
		h.fail(w, r, &page, http.StatusUnauthorized, portalsdk.ErrorCodeUnauthenticated,
			"Your session has ended. Please log in again.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		log.Warn("failed to parse payslip form", "err", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, &page, http.StatusRequestEntityTooLarge, "invalid_request", "The payslip file is too large.")
			return
		}
		h.fail(w, r, &page, http.StatusBadRequest, "invalid_request", "The form could not be read.")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if err := h.CSRFService.Verify(r.FormValue(csrfField), user.ID); err != nil {
		log.Warn("payslip form rejected", "err", err)
		h.fail(w, r, &page, http.StatusForbidden, "invalid_csrf_token", "The form has expired. Please try again.")
		return
	}

	recipient := strings.TrimSpace(r.FormValue(service.FieldRecipient))
	page.Email = recipient
	if !validEmail(recipient) {
		h.fail(w, r, &page, http.StatusBadRequest, "invalid_request", "Enter a valid recipient email address.")
		return
	}

	file, header, err := r.FormFile(service.FieldPayslip)
	if err != nil {
		h.fail(w, r, &page, http.StatusBadRequest, "invalid_request", "Choose a payslip file to send.")
		return
	}
	defer func() { _ = file.Close() }()

	form := portalsdk.NewFormData().
		Add(service.FieldRecipient, recipient).
		AddFile(service.FieldPayslip, header.Filename, header.Header.Get("Content-Type"), file)

	d, sendErr := h.PayslipService.Send(ctx, h.Client.NewSessionFromRequest(r), *user, form)

	status := http.StatusOK
	switch {
	case sendErr != nil:
		status = http.StatusBadGateway
		page.Error = "The payslip service could not be reached. Nothing was sent."
	case d.Status == domain.DispatchRejected:
		status = http.StatusBadGateway
		page.Error = "The payslip service refused the request: " + d.Error
	default:
		page.Notice = "Payslip sent to " + recipient + "."
		page.Email = ""
	}

	if wantsJSON(r) {
		httpx.WriteJSON(w, status, dispatchResponse(d))
		return
	}

	preparePayslipForm(ctx, &page, h.CSRFService, h.PayslipService)
	h.Render(w, r, status, page)
}

// fail answers with the form page and msg, or with a JSON error for API
// clients.
func (h *PayslipSubmitHandler) fail(w http.ResponseWriter, r *http.Request, page *Page, status int, code, msg string) {
	if wantsJSON(r) {
		httpx.WriteError(w, status, code, msg)
		return
	}

	page.Error = msg
	preparePayslipForm(r.Context(), page, h.CSRFService, h.PayslipService)
	h.Render(w, r, status, *page)
}

// DispatchListHandler lists the caller's recent payslip dispatches.
type DispatchListHandler struct {
	PayslipService *service.PayslipService
}

// ServeHTTP godoc
//
//	@Summary		Recent dispatches
//	@Description	Returns the caller's most recent payslip dispatches, newest first.
//	@Tags			Payslips
//	@Produce		json
//	@Param			limit	query		int							false	"Maximum number of records (1-100)"	default(10)
//	@Success		200		{array}		portalsdk.DispatchResponse	"Dispatches"
//	@Failure		400		{object}	portalsdk.ErrorResponse		"Invalid limit"
//	@Failure		401		{object}	portalsdk.ErrorResponse		"Not signed in"
//	@Router			/api/dispatches [get]
func (h *DispatchListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, _ := httpx.UserIDFromContext(ctx)
	userID, err := strconv.Atoi(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, portalsdk.ErrorCodeUnauthenticated, "authentication required")
		return
	}

	limit := recentHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	list, err := h.PayslipService.Recent(ctx, userID, limit)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list dispatches", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, portalsdk.ErrorCodeServerError, "internal server error")
		return
	}

	resp := make([]portalsdk.DispatchResponse, 0, len(list))
	for _, d := range list {
		resp = append(resp, dispatchResponse(d))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet godoc
//
//	@Summary		Dispatch details
//	@Description	Returns one of the caller's payslip dispatches. Dispatches of other users are reported as not found.
//	@Tags			Payslips
//	@Produce		json
//	@Param			id	path		string						true	"Dispatch ID (ULID)"
//	@Success		200	{object}	portalsdk.DispatchResponse	"Dispatch"
//	@Failure		400	{object}	portalsdk.ErrorResponse		"Malformed ID"
//	@Failure		401	{object}	portalsdk.ErrorResponse		"Not signed in"
//	@Failure		404	{object}	portalsdk.ErrorResponse		"Not found"
//	@Router			/api/dispatches/{id} [get]
func (h *DispatchListHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, _ := httpx.UserIDFromContext(ctx)
	userID, err := strconv.Atoi(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, portalsdk.ErrorCodeUnauthenticated, "authentication required")
		return
	}

	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed dispatch id")
		return
	}

	d, err := h.PayslipService.Get(ctx, userID, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "dispatch not found")
		return
	case err != nil:
		slogx.FromContext(ctx).Error("failed to load dispatch", "dispatch_id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, portalsdk.ErrorCodeServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dispatchResponse(d))
}

func dispatchResponse(d domain.Dispatch) portalsdk.DispatchResponse {
	return portalsdk.DispatchResponse{
		ID:             d.ID,
		Status:         string(d.Status),
		Recipient:      d.Recipient,
		Filename:       d.Filename,
		UpstreamStatus: d.UpstreamStatus,
		Error:          d.Error,
		CreatedAt:      d.CreatedAt,
	}
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
