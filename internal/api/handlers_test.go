package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/logger"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTracker struct {
	err        error
	campaignID string
}

func (s *stubTracker) TrackClick(ctx context.Context, campaignID string, req *services.ClickRequest) (*services.TrackResult, error) {
	s.campaignID = campaignID
	if s.err != nil {
		return nil, s.err
	}
	return &services.TrackResult{
		ClickID:     "afl_0123456789abcdef",
		RedirectURL: "https://example.com/offer?afl_click_id=afl_0123456789abcdef",
		Fingerprint: req.Fingerprint,
	}, nil
}

type stubLanding struct{ err error }

func (s stubLanding) LandingClick(ctx context.Context, clickID string) (string, error) {
	if clickID == "" {
		return "", customerrors.ErrMissingClickID
	}
	if s.err != nil {
		return "", s.err
	}
	return "https://example.com/offer?afl_click_id=" + clickID, nil
}

type stubPostbacks struct {
	res *services.PostbackResult
	err error
}

func (s stubPostbacks) RecordConversion(ctx context.Context, clickID, payout, status string) (*services.PostbackResult, error) {
	if clickID == "" {
		return nil, customerrors.ErrMissingClickID
	}
	return s.res, s.err
}

type stubCampaigns struct{ err error }

func (s stubCampaigns) CreateCampaign(ctx context.Context, in services.CampaignInput) (*models.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Campaign{ID: "camp_abcdefghij", Name: in.Name, Status: models.CampaignActive}, nil
}

func (s stubCampaigns) UpdateCampaign(ctx context.Context, id string, in services.CampaignInput) (*models.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Campaign{ID: id, Name: in.Name}, nil
}

func (s stubCampaigns) GetCampaignStats(ctx context.Context, id string) (*models.CampaignStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.CampaignStats{CampaignID: id, Clicks: 4, Conversions: 1, CR: 25}, nil
}

func newTestRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if deps.CookieMaxAge == 0 {
		deps.CookieMaxAge = 2592000
	}
	router := gin.New()
	SetupRoutes(router, deps)
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRedirectSuccessHeaders(t *testing.T) {
	tracker := &stubTracker{}
	router := newTestRouter(Deps{Clicks: tracker})

	rec := serve(router, http.MethodGet, "/click?cid=camp_1", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if tracker.campaignID != "camp_1" {
		t.Fatalf("campaign id = %q", tracker.campaignID)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/offer?afl_click_id=afl_0123456789abcdef" {
		t.Fatalf("Location = %q", loc)
	}
	if rec.Header().Get("X-Click-ID") != "afl_0123456789abcdef" {
		t.Fatalf("X-Click-ID = %q", rec.Header().Get("X-Click-ID"))
	}
	if !strings.HasSuffix(rec.Header().Get("X-Processing-Time"), "ms") {
		t.Fatalf("X-Processing-Time = %q", rec.Header().Get("X-Processing-Time"))
	}

	cookie := rec.Header().Get("Set-Cookie")
	for _, part := range []string{FingerprintCookie + "=", "Max-Age=2592000", "HttpOnly", "SameSite=Lax"} {
		if !strings.Contains(cookie, part) {
			t.Errorf("Set-Cookie %q is missing %q", cookie, part)
		}
	}
}

func TestRedirectCampaignIDSources(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/c/camp_a", "camp_a"},
		{"/t/camp_b", "camp_b"},
		{"/click?cid=camp_c", "camp_c"},
		{"/click?campaign_id=camp_d", "camp_d"},
	}
	for _, tt := range tests {
		tracker := &stubTracker{}
		router := newTestRouter(Deps{Clicks: tracker})
		serve(router, http.MethodGet, tt.target, "")
		if tracker.campaignID != tt.want {
			t.Errorf("%s: campaign id = %q, want %q", tt.target, tracker.campaignID, tt.want)
		}
	}
}

func TestRedirectErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{customerrors.ErrMissingCampaignID, http.StatusBadRequest},
		{customerrors.ErrCampaignNotFound, http.StatusNotFound},
		{customerrors.ErrCampaignInactive, http.StatusForbidden},
		{customerrors.ErrBotBlocked, http.StatusForbidden},
		{customerrors.ErrNoDestination, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		router := newTestRouter(Deps{Clicks: &stubTracker{err: tt.err}})
		rec := serve(router, http.MethodGet, "/c/camp_1", "")
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
		if rec.Body.Len() != 0 || rec.Header().Get("Set-Cookie") != "" {
			t.Errorf("%v: failures must carry no body or cookie", tt.err)
		}
	}
}

func TestLandingClickHandler(t *testing.T) {
	router := newTestRouter(Deps{Landing: stubLanding{}})
	rec := serve(router, http.MethodGet, "/lp-click?afl_click_id=afl_x", "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "https://example.com/offer?afl_click_id=afl_x" {
		t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}

	if rec := serve(router, http.MethodGet, "/lp-click", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing click id: status = %d", rec.Code)
	}

	router = newTestRouter(Deps{Landing: stubLanding{err: customerrors.ErrClickNotFound}})
	if rec := serve(router, http.MethodGet, "/lp-click?click_id=afl_x", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown click: status = %d", rec.Code)
	}
}

func TestPostbackResponses(t *testing.T) {
	tests := []struct {
		name     string
		stub     stubPostbacks
		target   string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "recorded",
			stub:     stubPostbacks{res: &services.PostbackResult{ClickID: "afl_1", Payout: "12.50"}},
			target:   "/api/postback?click_id=afl_1&payout=12.50&status=approved",
			wantCode: http.StatusOK,
			wantMsg:  "Conversion recorded",
		},
		{
			name:     "already converted",
			stub:     stubPostbacks{res: &services.PostbackResult{ClickID: "afl_1", AlreadyConverted: true}},
			target:   "/api/postback?afl_click_id=afl_1&payout=12.50",
			wantCode: http.StatusOK,
			wantMsg:  "Already converted",
		},
		{
			name:     "missing click id",
			target:   "/api/postback?payout=1",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown click",
			stub:     stubPostbacks{err: customerrors.ErrClickNotFound},
			target:   "/api/postback?click_id=afl_2",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad payout",
			stub:     stubPostbacks{err: customerrors.ErrInvalidPayout},
			target:   "/api/postback?click_id=afl_2&payout=abc",
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Deps{Postbacks: tt.stub})
			rec := serve(router, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantMsg == "" {
				return
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["success"] != true || body["message"] != tt.wantMsg {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestRateLimitAnswers429(t *testing.T) {
	router := newTestRouter(Deps{Clicks: &stubTracker{}, RateLimitPerMinute: 2, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		if rec := serve(router, http.MethodGet, "/c/camp_1", ""); rec.Code != http.StatusFound {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if rec := serve(router, http.MethodGet, "/c/camp_1", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health must not be rate limited, status = %d", rec.Code)
	}
}

func TestRateLimitBurstDefaultsToPerMinute(t *testing.T) {
	router := newTestRouter(Deps{Clicks: &stubTracker{}, RateLimitPerMinute: 1000})

	for i := 0; i < 150; i++ {
		if rec := serve(router, http.MethodGet, "/c/camp_1", ""); rec.Code != http.StatusFound {
			t.Fatalf("request %d: status = %d, want 302", i, rec.Code)
		}
	}
}

func TestCampaignHandlers(t *testing.T) {
	router := newTestRouter(Deps{Campaigns: stubCampaigns{}})

	rec := serve(router, http.MethodPost, "/api/campaigns", `{"name":"Spring","offer_url":"https://example.com"}`)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "camp_abcdefghij") {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodPut, "/api/campaigns/camp_1", `{"name":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/api/campaigns/camp_1/stats", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cr":25`) {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(router, http.MethodPost, "/api/campaigns", `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d", rec.Code)
	}

	router = newTestRouter(Deps{Campaigns: stubCampaigns{err: customerrors.ErrInvalidCampaign}})
	if rec := serve(router, http.MethodPost, "/api/campaigns", `{"name":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid campaign: status = %d", rec.Code)
	}

	router = newTestRouter(Deps{Campaigns: stubCampaigns{err: customerrors.ErrCampaignNotFound}})
	if rec := serve(router, http.MethodGet, "/api/campaigns/camp_x/stats", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown campaign stats: status = %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	router := newTestRouter(Deps{Checks: map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return customerrors.ErrQueueUnavailable },
	}})
	if rec := serve(router, http.MethodGet, "/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
