package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmaxer/gitmaxer-bot/pkg/config"
	"github.com/gitmaxer/gitmaxer-bot/pkg/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRunner struct {
	calls int
	err   error
}

func (s *stubRunner) Run(context.Context) (*report.Report, error) {
	s.calls++
	rep := report.New()
	rep.Addf("tick started")
	if s.err != nil {
		rep.Fail(s.err)
		return rep, s.err
	}
	rep.Addf("tick finished with 0 error(s)")
	return rep, nil
}

type stubNotifier struct {
	delivered []*report.Report
}

func (n *stubNotifier) Notify(_ context.Context, rep *report.Report) error {
	n.delivered = append(n.delivered, rep)
	return nil
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCronRunsTick(t *testing.T) {
	runner := &stubRunner{}
	notifier := &stubNotifier{}
	router := NewRouter(config.ServerConfig{}, runner, notifier)

	w := serve(router, http.MethodGet, CronPath, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "tick started\ntick finished with 0 error(s)")
	assert.Equal(t, 1, runner.calls)
	require.Len(t, notifier.delivered, 1)
}

func TestCronAcceptsPost(t *testing.T) {
	runner := &stubRunner{}
	router := NewRouter(config.ServerConfig{}, runner)

	w := serve(router, http.MethodPost, CronPath, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, runner.calls)
}

func TestCronFaultReturns500(t *testing.T) {
	runner := &stubRunner{err: errors.New("configuration error: store missing")}
	router := NewRouter(config.ServerConfig{}, runner)

	w := serve(router, http.MethodGet, CronPath, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERROR configuration error: store missing")
}

type runnerFunc func(context.Context) (*report.Report, error)

func (f runnerFunc) Run(ctx context.Context) (*report.Report, error) { return f(ctx) }

func TestCronFailedReportReturns500(t *testing.T) {
	runner := runnerFunc(func(context.Context) (*report.Report, error) {
		rep := report.New()
		rep.Fail(errors.New("load active users: connection refused"))
		return rep, nil
	})
	router := NewRouter(config.ServerConfig{}, runner)

	w := serve(router, http.MethodGet, CronPath, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestCronNilReportStillExplainsFault(t *testing.T) {
	runner := runnerFunc(func(context.Context) (*report.Report, error) {
		return nil, errors.New("runner unavailable")
	})
	router := NewRouter(config.ServerConfig{}, runner)

	w := serve(router, http.MethodGet, CronPath, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "runner unavailable")
}

func TestCronSecret(t *testing.T) {
	cfg := config.ServerConfig{CronSecret: "s3cret"}

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing header", nil, http.StatusUnauthorized},
		{"wrong secret", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"no bearer prefix", map[string]string{"Authorization": "s3cret"}, http.StatusUnauthorized},
		{"valid secret", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
		{"hosted scheduler", map[string]string{"User-Agent": "vercel-cron/1.0"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			router := NewRouter(cfg, runner)

			w := serve(router, http.MethodGet, CronPath, tt.headers)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Zero(t, runner.calls, "rejected requests must not tick")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	runner := &stubRunner{}
	router := NewRouter(config.ServerConfig{CronSecret: "s3cret"}, runner)

	w := serve(router, http.MethodGet, HealthPath, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
	assert.Zero(t, runner.calls)
}
