package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/config"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/optimizer"
)

const testSecret = "test-secret"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.Expiration = 3600
	cfg.Annealing.InitialTemp = 1000
	cfg.Annealing.CoolingRate = 0.95
	cfg.Annealing.MinTemp = 1
	cfg.Annealing.IterationsPerTemp = 100
	cfg.Annealing.CoolingSchedule = "exponential"
	cfg.Annealing.MaxRuns = 4
	cfg.Annealing.Timeout = 10
	cfg.Scoring.SidePreferencePenalty = 100
	cfg.Scoring.ExperienceMixingPenalty = 10
	cfg.Scoring.MultiBoatExperienceMixPenalty = 1000
	cfg.Scoring.PowerVariancePenalty = 0.1
	cfg.Scoring.SternLoadingPenalty = 15
	cfg.Scoring.InterBoatVariancePenalty = 100
	cfg.Scoring.DaysSinceBoatedPenalty = 5

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func tokenCookie(t *testing.T, userID int64, role domain.Role) *http.Cookie {
	t.Helper()

	claims := AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &http.Cookie{Name: tokenCookieName, Value: token}
}

func do(t *testing.T, h *Handler, method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHandler(t)

	t.Run("未登录", func(t *testing.T) {
		rec, resp := do(t, h, http.MethodGet, "/lineups", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.False(t, resp.Success)
		require.Equal(t, "用户未登录", resp.Message)
	})

	t.Run("令牌签名错误", func(t *testing.T) {
		claims := AuthClaims{Role: string(domain.RoleHeadCoach), RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
		require.NoError(t, err)

		_, resp := do(t, h, http.MethodGet, "/lineups", nil, &http.Cookie{Name: tokenCookieName, Value: token})
		require.False(t, resp.Success)
		require.Equal(t, "无效的令牌", resp.Message)
	})

	t.Run("教练不能创建用户", func(t *testing.T) {
		_, resp := do(t, h, http.MethodPost, "/users", map[string]any{}, tokenCookie(t, 2, domain.RoleCoach))
		require.False(t, resp.Success)
		require.Equal(t, "权限不足", resp.Message)
	})

	t.Run("非法的 id", func(t *testing.T) {
		_, resp := do(t, h, http.MethodGet, "/lineups/abc", nil, tokenCookie(t, 1, domain.RoleCoach))
		require.False(t, resp.Success)
	})
}

func TestGenerateLineupRejectsBadRequests(t *testing.T) {
	h := newTestHandler(t)
	cookie := tokenCookie(t, 1, domain.RoleCoach)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{
			name: "艇型不合法",
			body: map[string]any{"boatType": 5},
		},
		{
			name:    "运行次数过多",
			body:    map[string]any{"boatType": 8, "runs": 10},
			message: "运行次数不能超过 4",
		},
		{
			name: "权重为负",
			body: map[string]any{"boatType": 8, "weights": map[string]any{"side_preference_penalty": -1}},
		},
		{
			name: "降温系数不合法",
			body: map[string]any{"boatType": 4, "parameters": map[string]any{"cooling_rate": 1.5}},
		},
		{
			name: "运动员重复",
			body: map[string]any{"boatType": 4, "athleteIDs": []int64{1, 1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := do(t, h, http.MethodPost, "/lineups/generate", tt.body, cookie)
			require.False(t, resp.Success)
			require.NotEmpty(t, resp.Message)
			if tt.message != "" {
				require.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	do(t, h, http.MethodGet, "/lineups", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "lineup_http_requests_total")
}

func TestLineupConversion(t *testing.T) {
	athletes := make([]*domain.Athlete, 5)
	for i := range athletes {
		athletes[i] = &domain.Athlete{
			ID:             int64(i + 1),
			Name:           "A" + strconv.Itoa(i+1),
			ErgScore:       400 + float64(i),
			SidePreference: domain.SideBoth,
			Experience:     domain.ExperienceVarsity,
		}
	}

	res := &optimizer.Result{
		Boats:      [][]*domain.Athlete{{athletes[3], athletes[0], athletes[2], athletes[1]}},
		Unassigned: []*domain.Athlete{athletes[4]},
		Cost:       123.4,
	}

	lineup := toLineup(res, 4, false)
	require.Len(t, lineup.Boats, 1)
	require.Equal(t, 1, lineup.Boats[0].Number)
	require.Equal(t, []int64{4, 1, 3, 2}, lineup.BoatedAthleteIDs())
	require.Equal(t, []int64{5}, lineup.UnassignedAthleteIDs)
	require.Equal(t, domain.SideStarboard, lineup.Boats[0].Seats[0].Side)
	require.Equal(t, domain.SidePort, lineup.Boats[0].Seats[1].Side)

	rebuilt := toResult(lineup, athletes)
	require.Equal(t, res.Boats, rebuilt.Boats)
	require.Equal(t, res.Unassigned, rebuilt.Unassigned)
	require.Equal(t, optimizer.RenderReport(res, false), optimizer.RenderReport(rebuilt, false))
}

func TestGenerationStatus(t *testing.T) {
	res := &optimizer.Result{Cost: 1}

	tests := []struct {
		name        string
		res         *optimizer.Result
		err         error
		wantStatus  string
		wantPartial bool
	}{
		{name: "成功", res: res, wantStatus: "succeeded"},
		{name: "超时但有结果", res: res, err: context.DeadlineExceeded, wantStatus: "timeout", wantPartial: true},
		{name: "超时且没有结果", err: context.DeadlineExceeded, wantStatus: "failed"},
		{name: "客户端取消", res: res, err: context.Canceled, wantStatus: "failed"},
		{name: "其他错误", err: optimizer.ErrNotEnoughAthletes, wantStatus: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, partial := generationStatus(tt.res, tt.err)
			require.Equal(t, tt.wantStatus, status)
			require.Equal(t, tt.wantPartial, partial)
		})
	}
}

func TestReleaseGenerationLockLogsFailure(t *testing.T) {
	h := newTestHandler(t)
	h.redisClient = redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = h.redisClient.Close() })

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	h.releaseGenerationLock(ctx, "token")

	require.Contains(t, logs.String(), "释放排艇锁失败")
}
