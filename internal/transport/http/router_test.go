package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	badgerstore "video-quiz-service/internal/infra/badger"
	"video-quiz-service/internal/infra/memory"
)

type testEnv struct {
	server *httptest.Server
	store  *badgerstore.Store
	auth   *app.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokenIssuer("access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	authSvc := app.NewAuthServiceWithCost(store, tokens, bcrypt.MinCost)
	statsSvc := app.NewStatsService(memory.NewStatsCache(store, time.Minute))
	quizSvc := app.NewQuizService(store, statsSvc)

	server := httptest.NewServer(NewRouter(RouterConfig{}, Services{
		Auth:  authSvc,
		Quiz:  quizSvc,
		Stats: statsSvc,
	}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, auth: authSvc}
}

func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (e *testEnv) cookie(t *testing.T, c *http.Client, name string) string {
	t.Helper()
	u, _ := url.Parse(e.server.URL)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// call sends body as JSON (when non-nil) and decodes the response into a map.
func (e *testEnv) call(t *testing.T, c *http.Client, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func signupBody(email, phone string) map[string]string {
	return map[string]string{
		"name":     "Asha",
		"email":    email,
		"password": "secret123",
		"phone":    phone,
		"state":    "Karnataka",
		"district": "Mysuru",
		"pincode":  "570001",
	}
}

func (e *testEnv) signup(t *testing.T, c *http.Client, email, phone string) map[string]any {
	t.Helper()
	resp, body := e.call(t, c, http.MethodPost, "/api/auth/signup", signupBody(email, phone))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d %v", resp.StatusCode, body)
	}
	return body
}

func (e *testEnv) signupAdmin(t *testing.T, c *http.Client, email, phone string) {
	t.Helper()
	e.signup(t, c, email, phone)
	if err := e.auth.PromoteToAdmin(context.Background(), email); err != nil {
		t.Fatalf("promote: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, body map[string]any, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d %v", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func TestSignupSetsCookiesAndReturnsProfile(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	resp, body := env.call(t, c, http.MethodPost, "/api/auth/signup", signupBody("Asha@Example.com ", "9000000001"))
	expectStatus(t, resp, body, http.StatusCreated)

	if body["message"] != "User created successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", body)
	}
	if user["email"] != "asha@example.com" || user["role"] != "user" || user["_id"] == "" {
		t.Fatalf("unexpected profile: %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash leaked in profile")
	}

	got := map[string]*http.Cookie{}
	for _, ck := range resp.Cookies() {
		got[ck.Name] = ck
	}
	access, refresh := got[accessCookie], got[refreshCookie]
	if access == nil || refresh == nil {
		t.Fatalf("expected both cookies, got %v", resp.Cookies())
	}
	if access.MaxAge != 900 || refresh.MaxAge != 604800 {
		t.Fatalf("unexpected max ages: access=%d refresh=%d", access.MaxAge, refresh.MaxAge)
	}
	for _, ck := range []*http.Cookie{access, refresh} {
		if !ck.HttpOnly || ck.SameSite != http.SameSiteStrictMode || ck.Path != "/" || ck.Secure {
			t.Fatalf("unexpected cookie attributes: %+v", ck)
		}
	}

	resp, body = env.call(t, c, http.MethodGet, "/api/auth/check", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if body["email"] != "asha@example.com" {
		t.Fatalf("check returned wrong profile: %v", body)
	}
}

func TestSignupRejectsDuplicatesAndMissingFields(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signup(t, c, "asha@example.com", "9000000001")

	resp, body := env.call(t, c, http.MethodPost, "/api/auth/signup", signupBody("asha@example.com", "9000000002"))
	expectStatus(t, resp, body, http.StatusBadRequest)
	if body["message"] != "User already exists" {
		t.Fatalf("unexpected message: %v", body)
	}

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/signup", signupBody("other@example.com", "9000000001"))
	expectStatus(t, resp, body, http.StatusBadRequest)

	missing := signupBody("new@example.com", "9000000003")
	delete(missing, "pincode")
	resp, body = env.call(t, c, http.MethodPost, "/api/auth/signup", missing)
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/signup", nil)
	expectStatus(t, resp, body, http.StatusBadRequest)
}

func TestSignupCannotSetRole(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	req := map[string]any{}
	for k, v := range signupBody("asha@example.com", "9000000001") {
		req[k] = v
	}
	req["role"] = "admin"
	resp, body := env.call(t, c, http.MethodPost, "/api/auth/signup", req)
	expectStatus(t, resp, body, http.StatusCreated)
	if user := body["user"].(map[string]any); user["role"] != "user" {
		t.Fatalf("expected role user, got %v", user["role"])
	}
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signup(t, c, "asha@example.com", "9000000001")

	resp, body := env.call(t, c, http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com", "password": "wrong-pass"})
	expectStatus(t, resp, body, http.StatusUnauthorized)
	if body["message"] != "Invalid credentials" {
		t.Fatalf("unexpected message: %v", body)
	}

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@example.com", "password": "secret123"})
	expectStatus(t, resp, body, http.StatusUnauthorized)

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/login", map[string]string{"email": "ASHA@example.com", "password": "secret123"})
	expectStatus(t, resp, body, http.StatusOK)
	if body["_id"] == "" || body["role"] != "user" {
		t.Fatalf("unexpected login profile: %v", body)
	}
}

func TestRefreshAfterLoginAndAfterLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signup(t, c, "asha@example.com", "9000000001")

	resp, body := env.call(t, c, http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com", "password": "secret123"})
	expectStatus(t, resp, body, http.StatusOK)
	refresh := env.cookie(t, c, refreshCookie)

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if token, _ := body["accessToken"].(string); token == "" || token != env.cookie(t, c, accessCookie) {
		t.Fatalf("expected new access token in body and cookie, got %v", body)
	}

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/logout", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if env.cookie(t, c, refreshCookie) != "" || env.cookie(t, c, accessCookie) != "" {
		t.Fatalf("expected cookies cleared after logout")
	}

	// Replay the old refresh token explicitly: the server must have revoked it.
	stale := env.client(t)
	u, _ := url.Parse(env.server.URL)
	stale.Jar.SetCookies(u, []*http.Cookie{{Name: refreshCookie, Value: refresh, Path: "/"}})
	resp, body = env.call(t, stale, http.MethodPost, "/api/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)

	resp, body = env.call(t, c, http.MethodPost, "/api/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
}

func TestSecondLoginInvalidatesFirstRefresh(t *testing.T) {
	env := newTestEnv(t)
	first, second := env.client(t), env.client(t)
	env.signup(t, first, "asha@example.com", "9000000001")

	creds := map[string]string{"email": "asha@example.com", "password": "secret123"}
	resp, body := env.call(t, first, http.MethodPost, "/api/auth/login", creds)
	expectStatus(t, resp, body, http.StatusOK)
	resp, body = env.call(t, second, http.MethodPost, "/api/auth/login", creds)
	expectStatus(t, resp, body, http.StatusOK)

	if env.cookie(t, first, refreshCookie) == env.cookie(t, second, refreshCookie) {
		t.Fatalf("expected distinct refresh tokens per login")
	}

	resp, body = env.call(t, first, http.MethodPost, "/api/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
	resp, body = env.call(t, second, http.MethodPost, "/api/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusOK)
}

func TestDoubleLogoutSucceeds(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signup(t, c, "asha@example.com", "9000000001")

	for i := 0; i < 2; i++ {
		resp, body := env.call(t, c, http.MethodPost, "/api/auth/logout", nil)
		expectStatus(t, resp, body, http.StatusOK)
		if body["message"] != "Logged out successfully" {
			t.Fatalf("unexpected message: %v", body)
		}
	}

	// A garbage refresh cookie is ignored as well.
	junk := env.client(t)
	u, _ := url.Parse(env.server.URL)
	junk.Jar.SetCookies(u, []*http.Cookie{{Name: refreshCookie, Value: "not-a-jwt", Path: "/"}})
	resp, body := env.call(t, junk, http.MethodPost, "/api/auth/logout", nil)
	expectStatus(t, resp, body, http.StatusOK)
}

func TestProtectedRoutesRequireAccessToken(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/check"},
		{http.MethodPost, "/api/questions/add-video"},
		{http.MethodGet, "/api/questions/video"},
		{http.MethodPost, "/api/questions/answer"},
		{http.MethodGet, "/api/admin/videoStats"},
		{http.MethodGet, "/api/admin/userStats"},
		{http.MethodGet, "/api/admin/questionInsights"},
	} {
		resp, body := env.call(t, c, route.method, route.path, nil)
		expectStatus(t, resp, body, http.StatusUnauthorized)
		if body["message"] == "" {
			t.Fatalf("%s: expected message in error body", route.path)
		}
	}

	u, _ := url.Parse(env.server.URL)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: accessCookie, Value: "forged", Path: "/"}})
	resp, body := env.call(t, c, http.MethodGet, "/api/auth/check", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
}

func TestBearerHeaderFallback(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signup(t, c, "asha@example.com", "9000000001")
	token := env.cookie(t, c, accessCookie)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/auth/check", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", resp.StatusCode)
	}
}

func TestAddVideoRequiresAdminAndPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signup(t, c, "asha@example.com", "9000000001")

	resp, body := env.call(t, c, http.MethodPost, "/api/questions/add-video", map[string]any{
		"videoUrl":  "https://cdn.example.com/a.mp4",
		"questions": []string{"Q1", "Q2", "Q3"},
	})
	expectStatus(t, resp, body, http.StatusUnauthorized)
	if body["message"] != "Unauthorized" {
		t.Fatalf("unexpected message: %v", body)
	}

	resp, body = env.call(t, c, http.MethodGet, "/api/questions/video", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestAddVideoRequiresExactlyThreeQuestions(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.signupAdmin(t, c, "admin@example.com", "9000000009")

	for _, questions := range [][]string{{}, {"Q1"}, {"Q1", "Q2"}, {"Q1", "Q2", "Q3", "Q4"}, {"Q1", "", "Q3"}} {
		resp, body := env.call(t, c, http.MethodPost, "/api/questions/add-video", map[string]any{
			"videoUrl":  "https://cdn.example.com/a.mp4",
			"questions": questions,
		})
		expectStatus(t, resp, body, http.StatusBadRequest)
	}
	resp, body := env.call(t, c, http.MethodPost, "/api/questions/add-video", map[string]any{
		"questions": []string{"Q1", "Q2", "Q3"},
	})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.call(t, c, http.MethodGet, "/api/questions/video", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if body["message"] != "No videos found." {
		t.Fatalf("unexpected message: %v", body)
	}

	resp, body = env.call(t, c, http.MethodPost, "/api/questions/add-video", map[string]any{
		"videoUrl":  "https://cdn.example.com/a.mp4",
		"questions": []string{"Q1", "Q2", "Q3"},
	})
	expectStatus(t, resp, body, http.StatusCreated)
	video, ok := body["video"].(map[string]any)
	if !ok || video["_id"] == "" {
		t.Fatalf("expected created video, got %v", body)
	}
	questions := video["questions"].([]any)
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if answers := q.(map[string]any)["answers"].([]any); len(answers) != 0 {
			t.Fatalf("expected empty answers, got %v", answers)
		}
	}
}

func TestSubmitAnswersScenario(t *testing.T) {
	env := newTestEnv(t)
	admin, user := env.client(t), env.client(t)
	env.signupAdmin(t, admin, "admin@example.com", "9000000009")
	profile := env.signup(t, user, "asha@example.com", "9000000001")["user"].(map[string]any)

	_, body := env.call(t, admin, http.MethodPost, "/api/questions/add-video", map[string]any{
		"videoUrl":  "https://cdn.example.com/a.mp4",
		"questions": []string{"Q1", "Q2", "Q3"},
	})
	videoID := body["video"].(map[string]any)["_id"].(string)

	resp, body := env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": videoID,
		"answers": []string{"A1", "A2", "A3"},
	})
	expectStatus(t, resp, body, http.StatusOK)
	if body["message"] != "Answers submitted successfully." {
		t.Fatalf("unexpected message: %v", body)
	}

	resp, body = env.call(t, user, http.MethodGet, "/api/questions/video", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if body["count"] != float64(1) {
		t.Fatalf("expected count 1, got %v", body["count"])
	}
	video := body["videos"].([]any)[0].(map[string]any)
	for i, q := range video["questions"].([]any) {
		answers := q.(map[string]any)["answers"].([]any)
		if len(answers) != 1 {
			t.Fatalf("question %d: expected one answer, got %d", i, len(answers))
		}
		a := answers[0].(map[string]any)
		want := []string{"A1", "A2", "A3"}[i]
		if a["userId"] != profile["_id"] || a["answerText"] != want {
			t.Fatalf("question %d: unexpected answer %v", i, a)
		}
	}
}

func TestSubmitAnswersRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	admin, user := env.client(t), env.client(t)
	env.signupAdmin(t, admin, "admin@example.com", "9000000009")
	env.signup(t, user, "asha@example.com", "9000000001")

	_, body := env.call(t, admin, http.MethodPost, "/api/questions/add-video", map[string]any{
		"videoUrl":  "https://cdn.example.com/a.mp4",
		"questions": []string{"Q1", "Q2", "Q3"},
	})
	videoID := body["video"].(map[string]any)["_id"].(string)

	resp, body := env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": videoID,
		"answers": []string{"A1", "A2"},
	})
	expectStatus(t, resp, body, http.StatusBadRequest)
	if msg, _ := body["message"].(string); !bytes.Contains([]byte(msg), []byte("(2)")) || !bytes.Contains([]byte(msg), []byte("(3)")) {
		t.Fatalf("expected message naming both counts, got %q", msg)
	}

	resp, body = env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": "missing",
		"answers": []string{"A1", "A2", "A3"},
	})
	expectStatus(t, resp, body, http.StatusNotFound)

	resp, body = env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": "missing",
		"answers": []string{"", "A2", "A3"},
	})
	expectStatus(t, resp, body, http.StatusNotFound)
	if body["message"] != "Video not found." {
		t.Fatalf("expected video lookup before answer checks, got %v", body)
	}

	resp, body = env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": videoID,
		"answers": []string{"A1", "", "A3"},
	})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": videoID,
		"answers": "A1",
	})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"answers": []string{"A1", "A2", "A3"},
	})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.call(t, user, http.MethodGet, "/api/questions/video", nil)
	expectStatus(t, resp, body, http.StatusOK)
	video := body["videos"].([]any)[0].(map[string]any)
	for _, q := range video["questions"].([]any) {
		if answers := q.(map[string]any)["answers"].([]any); len(answers) != 0 {
			t.Fatalf("rejected submissions must not append, got %v", answers)
		}
	}
}

func TestStatsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin, user := env.client(t), env.client(t)
	env.signupAdmin(t, admin, "admin@example.com", "9000000009")
	env.signup(t, user, "asha@example.com", "9000000001")

	resp, body := env.call(t, user, http.MethodGet, "/api/admin/videoStats", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if stats := body["videoStats"].([]any); len(stats) != 0 {
		t.Fatalf("expected no video stats, got %v", stats)
	}

	_, body = env.call(t, admin, http.MethodPost, "/api/questions/add-video", map[string]any{
		"videoUrl":  "https://cdn.example.com/a.mp4",
		"questions": []string{"Q1", "Q2", "Q3"},
	})
	videoID := body["video"].(map[string]any)["_id"].(string)
	resp, body = env.call(t, user, http.MethodPost, "/api/questions/answer", map[string]any{
		"videoId": videoID,
		"answers": []string{"A1", "A2", "A3"},
	})
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = env.call(t, user, http.MethodGet, "/api/admin/videoStats", nil)
	expectStatus(t, resp, body, http.StatusOK)
	videoStats := body["videoStats"].([]any)
	if len(videoStats) != 1 {
		t.Fatalf("expected one video stat, got %v", videoStats)
	}
	if vs := videoStats[0].(map[string]any); vs["totalAnswers"] != float64(3) || vs["totalQuestions"] != float64(3) {
		t.Fatalf("unexpected video stat: %v", vs)
	}

	resp, body = env.call(t, user, http.MethodGet, "/api/admin/userStats", nil)
	expectStatus(t, resp, body, http.StatusOK)
	users := body["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected two users, got %v", users)
	}
	var answered float64
	for _, u := range users {
		answered += u.(map[string]any)["totalAnswers"].(float64)
	}
	if answered != 3 {
		t.Fatalf("expected 3 answers across users, got %v", answered)
	}

	resp, body = env.call(t, user, http.MethodGet, "/api/admin/questionInsights", nil)
	expectStatus(t, resp, body, http.StatusOK)
	insights := body["questionInsights"].([]any)
	if len(insights) != 3 {
		t.Fatalf("expected three insights, got %v", insights)
	}
	if qi := insights[0].(map[string]any); qi["questionText"] != "Q1" || qi["uniqueUsers"] != float64(1) {
		t.Fatalf("unexpected insight: %v", qi)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
}
