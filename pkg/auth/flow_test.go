package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func redirect(t *testing.T, c *redirectCatcher, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?"+params.Encode(), nil))
	return rec
}

func TestRedirectCatcherAcceptsCode(t *testing.T) {
	c := newRedirectCatcher()
	rec := redirect(t, c, url.Values{"state": {c.state}, "code": {"abc"}})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "authorized") {
		t.Errorf("Unexpected response %d %q", rec.Code, rec.Body.String())
	}
	code, err := c.wait(context.Background(), time.Second)
	if err != nil || code != "abc" {
		t.Errorf("Expected code abc, got %q %v", code, err)
	}
}

func TestRedirectCatcherIgnoresStateMismatch(t *testing.T) {
	c := newRedirectCatcher()
	rec := redirect(t, c, url.Values{"state": {"other"}, "code": {"abc"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if _, err := c.wait(context.Background(), 10*time.Millisecond); err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected the flow to keep waiting, got %v", err)
	}
}

func TestRedirectCatcherFailures(t *testing.T) {
	c := newRedirectCatcher()
	redirect(t, c, url.Values{"state": {c.state}})
	if _, err := c.wait(context.Background(), time.Second); !errors.Is(err, errNoCode) {
		t.Errorf("Expected errNoCode, got %v", err)
	}

	c = newRedirectCatcher()
	rec := redirect(t, c, url.Values{"state": {c.state}, "error": {"access_denied"}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
	if _, err := c.wait(context.Background(), time.Second); err == nil || !strings.Contains(err.Error(), "access_denied") {
		t.Errorf("Expected denial error, got %v", err)
	}
}

func TestRedirectCatcherCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRedirectCatcher().wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
