package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 0 // don't rate-limit tests
	return New(cfg, st, tokens, logger), st
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func registerUser(t *testing.T, srv http.Handler, username, email, role string) {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "Sup3rSecret", "role": role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", email, w.Code, w.Body.String())
	}
}

func loginUser(t *testing.T, srv http.Handler, email string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "Sup3rSecret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, w.Code, w.Body.String())
	}
	var result struct {
		Token string `json:"access_token"`
	}
	decode(t, w, &result)
	return result.Token
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := doJSON(t, srv, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Errorf("healthz: %d", w.Code)
	}
	if w := doJSON(t, srv, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Errorf("readyz: %d", w.Code)
	}
}

func TestRegisterLoginValidateFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	registerUser(t, srv, "alice", "alice@example.com", "")

	// Wrong password is a generic 401.
	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "WrongSecret1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d", w.Code)
	}

	token := loginUser(t, srv, "alice@example.com")

	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/validate-token", "", map[string]string{"token": token})
	if w.Code != http.StatusOK {
		t.Fatalf("validate-token: status %d: %s", w.Code, w.Body.String())
	}
	var vt struct {
		Valid bool   `json:"valid"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, w, &vt)
	if !vt.Valid || vt.Email != "alice@example.com" || vt.Role != "user" {
		t.Errorf("validate result: %+v", vt)
	}

	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/validate-token", "", map[string]string{"token": "garbage"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token validated: %d", w.Code)
	}
}

func TestDoubleLoginSingleSessionRow(t *testing.T) {
	srv, st := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")
	loginUser(t, srv, "alice@example.com")
	loginUser(t, srv, "alice@example.com")

	account, err := st.GetAccountByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	n, err := st.CountSessions(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("CountSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("session rows after two logins = %d, want 1", n)
	}
}

func TestLogoutSuspendsSessionButNotToken(t *testing.T) {
	srv, st := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")
	token := loginUser(t, srv, "alice@example.com")

	if w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous logout: status %d, want 401", w.Code)
	}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status %d: %s", w.Code, w.Body.String())
	}

	account, err := st.GetAccountByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	sess, err := st.GetSessionByAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetSessionByAccount: %v", err)
	}
	if sess.Status != model.SessionSuspended {
		t.Errorf("session status = %q, want suspended", sess.Status)
	}

	// Revocation is advisory: the token still opens guarded routes until it
	// expires.
	if w := doJSON(t, srv, http.MethodGet, "/api/v1/watchlist/", token, nil); w.Code != http.StatusOK {
		t.Errorf("token rejected after logout: status %d", w.Code)
	}
}

func TestGuardMatrix(t *testing.T) {
	srv, _ := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")
	registerUser(t, srv, "root", "root@example.com", "admin")
	userToken := loginUser(t, srv, "alice@example.com")
	adminToken := loginUser(t, srv, "root@example.com")

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"invalid token", "not-a-token", http.StatusUnauthorized},
		{"user", userToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/admin/users", tc.token, nil)
		if w.Code != tc.want {
			t.Errorf("%s on admin route: status %d, want %d", tc.name, w.Code, tc.want)
		}
	}

	// Authenticated-only routes accept both roles.
	for _, token := range []string{userToken, adminToken} {
		if w := doJSON(t, srv, http.MethodGet, "/api/v1/watchlist/", token, nil); w.Code != http.StatusOK {
			t.Errorf("watchlist with valid token: status %d", w.Code)
		}
	}
}

func TestAdminSelfActionsRejected(t *testing.T) {
	srv, st := newTestServer(t)
	registerUser(t, srv, "root", "root@example.com", "admin")
	adminToken := loginUser(t, srv, "root@example.com")

	admin, err := st.GetAccountByEmail(context.Background(), "root@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	base := "/api/v1/admin/users/" + itoa(admin.ID)

	w := doJSON(t, srv, http.MethodPut, base+"/role", adminToken, map[string]string{"role": "user"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("self demotion: status %d, want 400: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, srv, http.MethodPut, base+"/status", adminToken, map[string]string{"status": "suspended"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("self suspension: status %d, want 400", w.Code)
	}
	w = doJSON(t, srv, http.MethodDelete, base, adminToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("self deletion: status %d, want 400", w.Code)
	}

	// The same actions against another account succeed.
	registerUser(t, srv, "alice", "alice@example.com", "")
	other, err := st.GetAccountByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	w = doJSON(t, srv, http.MethodPut, "/api/v1/admin/users/"+itoa(other.ID)+"/role", adminToken,
		map[string]string{"role": "admin"})
	if w.Code != http.StatusOK {
		t.Errorf("promote other: status %d: %s", w.Code, w.Body.String())
	}
}

func TestSelfActionRejectionAudited(t *testing.T) {
	srv, st := newTestServer(t)
	registerUser(t, srv, "root", "root@example.com", "admin")
	adminToken := loginUser(t, srv, "root@example.com")

	admin, err := st.GetAccountByEmail(context.Background(), "root@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}

	countDenied := func() int {
		t.Helper()
		logs, err := st.ListRecentActivity(context.Background(), 50)
		if err != nil {
			t.Fatalf("ListRecentActivity: %v", err)
		}
		var n int
		for _, l := range logs {
			if l.ActionType == "access_denied" {
				n++
			}
		}
		return n
	}

	before := countDenied()
	w := doJSON(t, srv, http.MethodPut, "/api/v1/admin/users/"+itoa(admin.ID)+"/role", adminToken,
		map[string]string{"role": "user"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self demotion: status %d, want 400", w.Code)
	}
	if got := countDenied(); got != before+1 {
		t.Errorf("access_denied rows after self demotion = %d, want %d", got, before+1)
	}

	// The row names the actor.
	logs, err := st.ListRecentActivity(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentActivity: %v", err)
	}
	if len(logs) != 1 || logs[0].AccountID == nil || *logs[0].AccountID != admin.ID {
		t.Errorf("latest activity row does not name the actor: %+v", logs)
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv, _ := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")

	body := map[string]string{"email": "alice@example.com", "password": "WrongSecret1"}
	for i := 0; i < 10; i++ {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d, want 401", i+1, w.Code)
		}
	}
	if w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", "", body); w.Code != http.StatusTooManyRequests {
		t.Errorf("attempt 11: status %d, want 429", w.Code)
	}

	// Registration shares the group but not the limiter.
	registerUser(t, srv, "bob", "bob@example.com", "")
}

func TestMovieSubmissionAndApprovalFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")
	registerUser(t, srv, "root", "root@example.com", "admin")
	userToken := loginUser(t, srv, "alice@example.com")
	adminToken := loginUser(t, srv, "root@example.com")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/movies/", userToken, map[string]interface{}{
		"title": "Heat", "genre": "Crime", "release_year": 1995,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit movie: status %d: %s", w.Code, w.Body.String())
	}
	var movie model.Movie
	decode(t, w, &movie)
	if movie.Approved {
		t.Error("user submission was auto-approved")
	}

	// Hidden from the public catalog until approval.
	var listing model.ListResponse
	w = doJSON(t, srv, http.MethodGet, "/api/v1/movies/", "", nil)
	decode(t, w, &listing)
	if listing.Meta.Total != 0 {
		t.Errorf("public catalog shows %d movies before approval", listing.Meta.Total)
	}

	w = doJSON(t, srv, http.MethodPut, "/api/v1/admin/movies/"+itoa(movie.ID)+"/approve", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/movies/", "", nil)
	decode(t, w, &listing)
	if listing.Meta.Total != 1 {
		t.Errorf("public catalog total after approval = %d, want 1", listing.Meta.Total)
	}
}

func TestReviewFlowOverHTTP(t *testing.T) {
	srv, st := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")
	registerUser(t, srv, "bob", "bob@example.com", "")
	aliceToken := loginUser(t, srv, "alice@example.com")
	bobToken := loginUser(t, srv, "bob@example.com")

	m := &model.Movie{Title: "Heat", Approved: true}
	if err := st.CreateMovie(context.Background(), m); err != nil {
		t.Fatalf("seed movie: %v", err)
	}
	reviewsPath := "/api/v1/movies/" + itoa(m.ID) + "/reviews"

	w := doJSON(t, srv, http.MethodPost, reviewsPath, aliceToken, map[string]interface{}{
		"rating": 9, "comment": "an amazing film",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create review: status %d: %s", w.Code, w.Body.String())
	}
	var review model.Review
	decode(t, w, &review)
	if review.SentimentScore == nil || *review.SentimentScore <= 0.5 {
		t.Errorf("sentiment = %v, want positive", review.SentimentScore)
	}

	w = doJSON(t, srv, http.MethodPost, reviewsPath, aliceToken, map[string]interface{}{"rating": 5})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate review: status %d, want 409", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/api/v1/reviews/"+itoa(review.ID)+"/like", bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("like: status %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, srv, http.MethodPost, "/api/v1/reviews/"+itoa(review.ID)+"/like", bobToken, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate like: status %d, want 409", w.Code)
	}

	// Bob cannot edit Alice's review.
	w = doJSON(t, srv, http.MethodPut, "/api/v1/reviews/"+itoa(review.ID), bobToken, map[string]interface{}{"rating": 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign edit: status %d, want 404", w.Code)
	}
}

func TestWatchlistContainsCheck(t *testing.T) {
	srv, st := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com", "")
	token := loginUser(t, srv, "alice@example.com")

	m := &model.Movie{Title: "Heat", Approved: true}
	if err := st.CreateMovie(context.Background(), m); err != nil {
		t.Fatalf("seed movie: %v", err)
	}

	var check struct {
		OnWatchlist bool   `json:"on_watchlist"`
		Status      string `json:"status"`
	}
	w := doJSON(t, srv, http.MethodGet, "/api/v1/watchlist/"+itoa(m.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("contains check: status %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &check)
	if check.OnWatchlist {
		t.Error("empty watchlist reported the movie as present")
	}

	w = doJSON(t, srv, http.MethodPost, "/api/v1/watchlist/", token, map[string]interface{}{"movie_id": m.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("add to watchlist: status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/watchlist/"+itoa(m.ID), token, nil)
	decode(t, w, &check)
	if !check.OnWatchlist || check.Status != model.WatchStatusToWatch {
		t.Errorf("contains after add = %+v", check)
	}
}

func TestAdminCreateAndGetUser(t *testing.T) {
	srv, _ := newTestServer(t)
	registerUser(t, srv, "root", "root@example.com", "admin")
	adminToken := loginUser(t, srv, "root@example.com")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/admin/users", adminToken, map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "Sup3rSecret",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: status %d: %s", w.Code, w.Body.String())
	}
	var created model.Account
	decode(t, w, &created)
	if created.Role != model.RoleUser || created.Username != "carol" {
		t.Errorf("created account = %+v", created)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/admin/users/"+itoa(created.ID), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get user: status %d: %s", w.Code, w.Body.String())
	}
	var fetched model.Account
	decode(t, w, &fetched)
	if fetched.Email != "carol@example.com" {
		t.Errorf("fetched account = %+v", fetched)
	}

	// The password hash never leaves the server.
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Errorf("user payload leaks credential material: %s", w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/admin/users/9999", adminToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing user: status %d, want 404", w.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
