package ringcentral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rc-tools/rccalllog/internal/clock"
	"github.com/rc-tools/rccalllog/internal/config"
	"github.com/rc-tools/rccalllog/internal/metrics"
	"github.com/rc-tools/rccalllog/internal/models"
)

var testStart = time.Date(2023, 10, 31, 12, 0, 0, 0, time.UTC)

func testQuery() models.CallLogQuery {
	return models.CallLogQuery{
		DateFrom: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2023, 10, 31, 23, 59, 59, 0, time.UTC),
		View:     models.ViewSimple,
	}
}

// recordingServer answers with the queued handlers in order and records the
// fake-clock time of every request it receives.
type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	clock    *clock.Fake
	handlers []http.HandlerFunc
	requests []*http.Request
	times    []time.Time
}

func newRecordingServer(t *testing.T, clk *clock.Fake, handlers ...http.HandlerFunc) *recordingServer {
	t.Helper()
	s := &recordingServer{clock: clk, handlers: handlers}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		i := len(s.requests)
		s.requests = append(s.requests, r)
		s.times = append(s.times, clk.Now())
		s.mu.Unlock()
		if i >= len(s.handlers) {
			http.Error(w, "unexpected request", http.StatusInternalServerError)
			return
		}
		s.handlers[i](w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *recordingServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func pageBody(next string, ids ...string) map[string]any {
	records := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		records = append(records, map[string]any{
			"id":        id,
			"startTime": "2023-10-02T10:00:00.000Z",
			"direction": "Inbound",
			"from":      map[string]any{"phoneNumber": "+16505550100"},
			"to":        map[string]any{"phoneNumber": "+16505550199"},
		})
	}
	body := map[string]any{
		"records":    records,
		"paging":     map[string]any{"page": 1, "perPage": 2},
		"navigation": map[string]any{},
	}
	if next != "" {
		body["navigation"] = map[string]any{"nextPage": map[string]any{"uri": next}}
	}
	return body
}

func newTestClient(t *testing.T, srv *recordingServer, clk *clock.Fake, interval time.Duration, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithClock(clk),
		WithThrottle(NewThrottle(interval, clk)),
	}, opts...)
	c, err := New(srv.URL, srv.Client(), opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestListCallLogEncodesQuery(t *testing.T) {
	clk := clock.NewFake(testStart)
	srv := newRecordingServer(t, clk, jsonHandler(http.StatusOK, pageBody("", "a", "b")))
	c := newTestClient(t, srv, clk, 0)

	q := testQuery()
	q.PhoneNumber = "+16505550100"
	page, err := c.ListCallLog(context.Background(), NewListCallLogRequest(q, 250))
	if err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	if len(page.Records) != 2 || page.Records[0].ID != "a" {
		t.Fatalf("unexpected records %+v", page.Records)
	}
	if page.HasNext() {
		t.Fatal("expected final page")
	}

	r := srv.requests[0]
	if r.Method != http.MethodGet || r.URL.Path != CallLogPath {
		t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
	}
	want := map[string]string{
		"view":          "Simple",
		"dateFrom":      "2023-10-01T00:00:00.000Z",
		"dateTo":        "2023-10-31T23:59:59.000Z",
		"phoneNumber":   "+16505550100",
		"recordingType": "All",
		"perPage":       "250",
		"page":          "1",
	}
	for k, v := range want {
		if got := r.URL.Query().Get(k); got != v {
			t.Errorf("query %s = %q, want %q", k, got, v)
		}
	}
	if !strings.HasPrefix(r.Header.Get("User-Agent"), "rccalllog/") {
		t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
	}
}

func TestListCallLogFollowsPageTokenOnConfiguredHost(t *testing.T) {
	clk := clock.NewFake(testStart)
	srv := newRecordingServer(t, clk, jsonHandler(http.StatusOK, pageBody("", "c")))
	c := newTestClient(t, srv, clk, 0)

	token := "https://platform.ringcentral.com" + CallLogPath + "?page=2&perPage=2&view=Simple"
	if _, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 2).WithPageToken(token)); err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	r := srv.requests[0]
	if r.URL.Path != CallLogPath || r.URL.Query().Get("page") != "2" {
		t.Fatalf("expected page 2 on the test server, got %s", r.URL.String())
	}
	if r.URL.Query().Get("dateFrom") != "" {
		t.Fatalf("token request must not re-add filters, got %s", r.URL.RawQuery)
	}
}

func TestDeleteCallLog(t *testing.T) {
	clk := clock.NewFake(testStart)
	srv := newRecordingServer(t, clk, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, srv, clk, 0)

	if err := c.DeleteCallLog(context.Background(), "Abc123"); err != nil {
		t.Fatalf("DeleteCallLog() error: %v", err)
	}
	r := srv.requests[0]
	if r.Method != http.MethodDelete || r.URL.Path != CallLogPath+"/Abc123" {
		t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
	}
}

func TestDeleteCallLogNotFound(t *testing.T) {
	clk := clock.NewFake(testStart)
	srv := newRecordingServer(t, clk, jsonHandler(http.StatusNotFound, map[string]any{
		"errorCode": "CMN-102",
		"message":   "Resource for parameter [callRecordId] is not found",
	}))
	c := newTestClient(t, srv, clk, 0)

	err := c.DeleteCallLog(context.Background(), "gone")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "CMN-102" {
		t.Fatalf("expected provider code CMN-102, got %v", err)
	}
	if srv.count() != 1 {
		t.Fatalf("404 must not be retried, got %d requests", srv.count())
	}
}

func TestThrottleSpacesConsecutiveCalls(t *testing.T) {
	clk := clock.NewFake(testStart)
	ok := jsonHandler(http.StatusOK, pageBody("", "a"))
	del := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	srv := newRecordingServer(t, clk, ok, del, ok, del)
	c := newTestClient(t, srv, clk, 6*time.Second)

	ctx := context.Background()
	req := NewListCallLogRequest(testQuery(), 100)
	for i := 0; i < 2; i++ {
		if _, err := c.ListCallLog(ctx, req); err != nil {
			t.Fatalf("ListCallLog() error: %v", err)
		}
		if err := c.DeleteCallLog(ctx, "a"); err != nil {
			t.Fatalf("DeleteCallLog() error: %v", err)
		}
	}

	for i := 1; i < len(srv.times); i++ {
		if gap := srv.times[i].Sub(srv.times[i-1]); gap < 6*time.Second {
			t.Errorf("gap between call %d and %d = %s, want >= 6s", i-1, i, gap)
		}
	}
}

func TestRateLimitHonoursRetryAfter(t *testing.T) {
	clk := clock.NewFake(testStart)
	limited := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "45")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errorCode":"CMN-301","message":"Request rate exceeded"}`)
	}
	srv := newRecordingServer(t, clk, limited, jsonHandler(http.StatusOK, pageBody("", "a")))
	m := metrics.New()
	c := newTestClient(t, srv, clk, 6*time.Second, WithMetrics(m))

	if _, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100)); err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	if srv.count() != 2 {
		t.Fatalf("expected 2 requests, got %d", srv.count())
	}
	if gap := srv.times[1].Sub(srv.times[0]); gap != 45*time.Second {
		t.Fatalf("expected retry after 45s, got %s", gap)
	}
	if got := testutil.ToFloat64(m.Retries.WithLabelValues("rate_limited")); got != 1 {
		t.Fatalf("expected 1 rate-limit retry, got %v", got)
	}
}

func TestRateLimitWithoutHeaderWaitsDefault(t *testing.T) {
	clk := clock.NewFake(testStart)
	srv := newRecordingServer(t, clk,
		jsonHandler(http.StatusTooManyRequests, map[string]any{"errorCode": "CMN-301"}),
		jsonHandler(http.StatusOK, pageBody("", "a")),
	)
	c := newTestClient(t, srv, clk, 6*time.Second)

	if _, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100)); err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	if gap := srv.times[1].Sub(srv.times[0]); gap != 60*time.Second {
		t.Fatalf("expected default 60s pause, got %s", gap)
	}
}

func TestRateLimitPauseExceedsThrottleInterval(t *testing.T) {
	clk := clock.NewFake(testStart)
	limited := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}
	srv := newRecordingServer(t, clk, limited, jsonHandler(http.StatusOK, pageBody("", "a")))
	c := newTestClient(t, srv, clk, 6*time.Second)

	if _, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100)); err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	if gap := srv.times[1].Sub(srv.times[0]); gap <= 6*time.Second {
		t.Fatalf("expected rate-limit pause above the 6s interval, got %s", gap)
	}
}

func TestRateLimitGivesUpAfterMaxRetries(t *testing.T) {
	clk := clock.NewFake(testStart)
	limited := jsonHandler(http.StatusTooManyRequests, map[string]any{"errorCode": "CMN-301"})
	srv := newRecordingServer(t, clk, limited, limited, limited, limited, limited)
	c := newTestClient(t, srv, clk, 0)

	_, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100))
	if !IsRateLimited(err) || !IsTransport(err) {
		t.Fatalf("expected rate-limited transport error, got %v", err)
	}
	if srv.count() != 4 {
		t.Fatalf("expected 1 call + 3 retries, got %d requests", srv.count())
	}
	if !strings.Contains(err.Error(), "giving up after 4 attempts") {
		t.Fatalf("unexpected error message %q", err)
	}
}

func TestServerErrorsBackOffExponentially(t *testing.T) {
	clk := clock.NewFake(testStart)
	failing := jsonHandler(http.StatusServiceUnavailable, map[string]any{"message": "down"})
	srv := newRecordingServer(t, clk, failing, failing, jsonHandler(http.StatusOK, pageBody("", "a")))
	c := newTestClient(t, srv, clk, 0)

	if _, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100)); err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	sleeps := clk.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 2*time.Second || sleeps[1] != 4*time.Second {
		t.Fatalf("expected backoff [2s 4s], got %v", sleeps)
	}
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	clk := clock.NewFake(testStart)
	srv := newRecordingServer(t, clk, jsonHandler(http.StatusUnauthorized, map[string]any{
		"errorCode": "TokenInvalid",
		"message":   "Access token corrupted",
	}))
	c := newTestClient(t, srv, clk, 0)

	_, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100))
	if !IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if IsTransport(err) {
		t.Fatal("authentication errors are not transport errors")
	}
	if srv.count() != 1 {
		t.Fatalf("expected no retry, got %d requests", srv.count())
	}
}

func TestSessionLogin(t *testing.T) {
	var gotGrant, gotAssertion, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != TokenPath {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		gotGrant = r.PostForm.Get("grant_type")
		gotAssertion = r.PostForm.Get("assertion")
		gotUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	s := NewSession(context.Background(), config.Credentials{
		ClientID: "cid", ClientSecret: "secret", JWT: "jwt-assertion", Server: srv.URL,
	}, srv.Client())
	if err := s.Login(); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if gotGrant != jwtBearerGrant || gotAssertion != "jwt-assertion" || gotUser != "cid" {
		t.Fatalf("unexpected token request grant=%q assertion=%q user=%q", gotGrant, gotAssertion, gotUser)
	}
}

func TestSessionLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid token"}`)
	}))
	defer srv.Close()

	s := NewSession(context.Background(), config.Credentials{
		ClientID: "cid", ClientSecret: "secret", JWT: "bad", Server: srv.URL,
	}, srv.Client())
	err := s.Login()
	if !IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestSessionAddsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == TokenPath {
			fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(pageBody("", "a"))
	}))
	defer srv.Close()

	s := NewSession(context.Background(), config.Credentials{
		ClientID: "cid", ClientSecret: "secret", JWT: "jwt", Server: srv.URL,
	}, srv.Client())
	c, err := New(srv.URL, s.HTTPClient())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := c.ListCallLog(context.Background(), NewListCallLogRequest(testQuery(), 100)); err != nil {
		t.Fatalf("ListCallLog() error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
}
