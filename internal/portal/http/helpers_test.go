package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/payslip/internal/portal/http"
	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

const sessionCookie = "session"

// fakeAPI stands in for the payslip API. A "session=valid" cookie is Ada,
// an admin; anything else is anonymous.
type fakeAPI struct {
	*httptest.Server

	currentUserCalls atomic.Int32
	sendCalls        atomic.Int32

	mu         sync.Mutex
	down       bool
	hangUp     bool
	sendStatus int
	sendBody   string
	gotEmail   string
	gotFile    string
	gotContent string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{sendStatus: http.StatusOK, sendBody: `{"status":"queued"}`}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/current-user", api.handleCurrentUser)
	mux.HandleFunc("POST /api/send-payslip-to-email", api.handleSend)
	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) authenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == "valid"
}

func (a *fakeAPI) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	a.currentUserCalls.Add(1)

	a.mu.Lock()
	down := a.down
	a.mu.Unlock()
	if down {
		http.Error(w, "upstream down", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !a.authenticated(r) {
		_, _ = io.WriteString(w, `{"isAuthenticated":false}`)
		return
	}
	_, _ = io.WriteString(w, `{"isAuthenticated":true,"user":{"id":1,"name":"Ada","email":"ada@example.com","role":"admin"}}`)
}

func (a *fakeAPI) handleSend(w http.ResponseWriter, r *http.Request) {
	a.sendCalls.Add(1)

	a.mu.Lock()
	hangUp := a.hangUp
	a.mu.Unlock()
	if hangUp {
		// Drop the connection without answering.
		conn, _, err := http.NewResponseController(w).Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}

	if !a.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.gotEmail = r.FormValue("email")
	if f, h, err := r.FormFile("payslip"); err == nil {
		content, _ := io.ReadAll(f)
		_ = f.Close()
		a.gotFile = h.Filename
		a.gotContent = string(content)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(a.sendStatus)
	_, _ = io.WriteString(w, a.sendBody)
}

type testPortal struct {
	api    *fakeAPI
	router *httpapi.Router
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()

	api := newFakeAPI(t)

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "portal.db") + "?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	csrf, err := service.NewCSRFService([]byte("test-secret"), time.Minute)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := httpapi.NewRouter(portalsdk.NewSDKClient(api.URL), "test", st, logger)
	router.PayslipService = &service.PayslipService{Store: st}
	router.CSRFService = csrf
	router.ApplyRoutes()

	return &testPortal{api: api, router: router}
}

func (p *testPortal) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	return rec
}

func signedIn(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "valid"})
	return req
}

// payslipRequest builds a multipart POST to /generate-payslips.
func payslipRequest(t *testing.T, fields map[string]string, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("payslip", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate-payslips", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
