package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type fakePolicy struct{ err error }

func (f fakePolicy) HealthCheck(ctx context.Context) error { return f.err }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(New(nil, nil), "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	rec := serve(New(fakePinger{}, fakePolicy{}), "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("readiness status = %d, want 200", rec.Code)
	}
}

func TestReadiness_DatabaseDown(t *testing.T) {
	rec := serve(New(fakePinger{err: errors.New("down")}, fakePolicy{}), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want 503", rec.Code)
	}
}

func TestReadiness_PolicyBroken(t *testing.T) {
	rec := serve(New(fakePinger{}, fakePolicy{err: errors.New("compile error")}), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want 503", rec.Code)
	}
}
