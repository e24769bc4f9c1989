package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/payslip/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestGuardMiddleware(t *testing.T) {
	t.Run("allow passes through with user id", func(t *testing.T) {
		var gotUser string
		h := httpx.GuardMiddleware(func(*http.Request) httpx.GuardDecision {
			return httpx.GuardDecision{Allow: true, UserID: "7"}
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser, _ = httpx.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "7", gotUser)
	})

	t.Run("deny redirects and never calls next", func(t *testing.T) {
		called := false
		h := httpx.GuardMiddleware(func(*http.Request) httpx.GuardDecision {
			return httpx.GuardDecision{RedirectURL: "https://api.example.com/auth/login?redirect=%2F"}
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.False(t, called)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "https://api.example.com/auth/login?redirect=%2F", rec.Header().Get("Location"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})
}

func TestGuardAPIMiddleware(t *testing.T) {
	called := false
	h := httpx.GuardAPIMiddleware(func(*http.Request) httpx.GuardDecision {
		return httpx.GuardDecision{RedirectURL: "https://api.example.com/auth/login"}
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dispatches", nil))

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	require.JSONEq(t, `{"error":"unauthenticated","error_description":"authentication required"}`, rec.Body.String())
}
