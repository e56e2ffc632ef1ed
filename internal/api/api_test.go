package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/navigation"
	"github.com/venapictures/vena/internal/session"
	"github.com/venapictures/vena/internal/storage"
	"github.com/venapictures/vena/internal/store"
	"github.com/venapictures/vena/internal/testutil"
)

// testEnv builds a console over the fixtures and its router. An empty
// token means bearer auth is disabled.
func testEnv(t *testing.T, authToken string, opts ...console.Option) (*console.Console, http.Handler) {
	t.Helper()
	c, _ := testutil.Console(t, opts...)
	return c, NewRouter(c, authToken != "", authToken, nil)
}

// loggedIn returns an environment whose session is already authenticated.
func loggedIn(t *testing.T) (*console.Console, http.Handler) {
	t.Helper()
	c, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/session/login", map[string]string{
		"email": session.DefaultEmail, "password": session.DefaultPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, body = %s", w.Code, w.Body.String())
	}
	return c, router
}

func do(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestScreenBeforeLogin(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/screen", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("screen = %d", w.Code)
	}
	sc := decode[console.Screen](t, w)
	if sc.Authenticated || sc.Screen != session.ScreenLogin {
		t.Errorf("screen = %+v, want unauthenticated login", sc)
	}
	if strings.Contains(w.Body.String(), session.DefaultPassword) {
		t.Error("screen must never expose the reference password")
	}
}

func TestLoginFlow(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/session/login", map[string]string{"email": session.DefaultEmail, "password": "nope"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad login = %d, want 422", w.Code)
	}
	if got := decode[errResponse](t, w).Error; got != "Email atau kata sandi salah." {
		t.Errorf("error = %q", got)
	}

	w = do(t, router, http.MethodGet, "/navigation", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("navigation before login = %d, want 401", w.Code)
	}

	w = do(t, router, http.MethodPost, "/session/login", map[string]string{"email": session.DefaultEmail, "password": session.DefaultPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d", w.Code)
	}
	sc := decode[console.Screen](t, w)
	if !sc.Authenticated || sc.Screen != session.ScreenApp || sc.Navigation == nil {
		t.Errorf("screen after login = %+v", sc)
	}

	w = do(t, router, http.MethodPost, "/session/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/navigation", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("navigation after logout = %d, want 401", w.Code)
	}
}

func TestConcurrentLoginIsRejected(t *testing.T) {
	_, router := testEnv(t, "", console.WithSessionOptions(session.WithDelay(200*time.Millisecond)))
	creds := map[string]string{"email": session.DefaultEmail, "password": session.DefaultPassword}

	var wg sync.WaitGroup
	wg.Add(1)
	var first *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		first = do(t, router, http.MethodPost, "/session/login", creds)
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if decode[console.Screen](t, do(t, router, http.MethodGet, "/screen", nil)).Submitting {
			break
		}
		time.Sleep(time.Millisecond)
	}
	second := do(t, router, http.MethodPost, "/session/login", creds)
	wg.Wait()

	if first.Code != http.StatusOK {
		t.Errorf("first login = %d", first.Code)
	}
	if second.Code != http.StatusConflict {
		t.Errorf("second login = %d, want 409", second.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/session/screen", map[string]string{"screen": "signup"}); w.Code != http.StatusOK {
		t.Fatalf("show signup = %d", w.Code)
	}

	cases := []struct {
		password, confirm, want string
	}{
		{"12345678", "12345679", "Kata sandi tidak cocok."},
		{"1234567", "1234567", "Kata sandi harus minimal 8 karakter."},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodPost, "/session/signup", map[string]string{
			"email": "baru@example.com", "password": tc.password, "confirmPassword": tc.confirm,
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("signup(%q,%q) = %d, want 422", tc.password, tc.confirm, w.Code)
			continue
		}
		if got := decode[errResponse](t, w).Error; got != tc.want {
			t.Errorf("error = %q, want %q", got, tc.want)
		}
	}

	w := do(t, router, http.MethodPost, "/session/signup", map[string]string{
		"email": "baru@example.com", "password": "12345678", "confirmPassword": "12345678",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup = %d, body = %s", w.Code, w.Body.String())
	}
	if !decode[console.Screen](t, w).Authenticated {
		t.Error("signup should authenticate")
	}
}

func TestLoginRequiresLoginScreen(t *testing.T) {
	_, router := testEnv(t, "")
	creds := map[string]string{"email": session.DefaultEmail, "password": session.DefaultPassword}

	do(t, router, http.MethodPost, "/session/screen", map[string]string{"screen": "suggestion"})
	if w := do(t, router, http.MethodPost, "/session/login", creds); w.Code != http.StatusConflict {
		t.Errorf("login from suggestion screen = %d, want 409", w.Code)
	}
	if sc := decode[console.Screen](t, do(t, router, http.MethodGet, "/screen", nil)); sc.Authenticated {
		t.Fatal("suggestion screen must not authenticate")
	}

	w := do(t, router, http.MethodPost, "/session/signup", map[string]string{
		"email": "baru@example.com", "password": "12345678", "confirmPassword": "12345678",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("signup from suggestion screen = %d, want 409", w.Code)
	}

	do(t, router, http.MethodPost, "/session/screen", map[string]string{"screen": "login"})
	if w := do(t, router, http.MethodPost, "/session/login", creds); w.Code != http.StatusOK {
		t.Fatalf("login = %d", w.Code)
	}
	bad := map[string]string{"email": session.DefaultEmail, "password": "nope"}
	if w := do(t, router, http.MethodPost, "/session/login", bad); w.Code != http.StatusConflict {
		t.Errorf("login while authenticated = %d, want 409", w.Code)
	}
}

func TestSuggestionFlow(t *testing.T) {
	c, router := testEnv(t, "")
	lead := map[string]string{"name": "Putri", "contactChannel": "Instagram", "location": "Bandung"}

	w := do(t, router, http.MethodPost, "/suggestions", lead)
	if w.Code != http.StatusConflict {
		t.Errorf("suggestion from login screen = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPost, "/session/screen", map[string]string{"screen": "suggestion"})
	if w.Code != http.StatusOK {
		t.Fatalf("show suggestion = %d", w.Code)
	}
	w = do(t, router, http.MethodPost, "/suggestions", lead)
	if w.Code != http.StatusCreated {
		t.Fatalf("suggestion = %d, body = %s", w.Code, w.Body.String())
	}
	added := decode[models.Lead](t, w)
	if got := c.Store.Leads().Get()[0].ID; got != added.ID {
		t.Errorf("newest lead = %s, want %s", got, added.ID)
	}
	sc := decode[console.Screen](t, do(t, router, http.MethodGet, "/screen", nil))
	if sc.Authenticated || sc.Screen != session.ScreenLogin {
		t.Errorf("screen after suggestion = %+v", sc)
	}
}

type viewBody struct {
	View          models.ViewType            `json:"view"`
	Writes        []string                   `json:"writes"`
	InitialAction *navigation.Pending        `json:"initialAction"`
	Data          map[string]json.RawMessage `json:"data"`
}

func TestNavigationDeepLink(t *testing.T) {
	_, router := loggedIn(t)

	do(t, router, http.MethodPost, "/navigation/sidebar", map[string]bool{"open": true})
	w := do(t, router, http.MethodPost, "/navigation", map[string]any{
		"view":   "Klien",
		"action": map[string]string{"kind": "VIEW_CLIENT_DETAILS", "entityId": "CLI001", "tab": "invoice"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("navigate = %d, body = %s", w.Code, w.Body.String())
	}
	st := decode[navigation.State](t, w)
	if st.ActiveView != models.ViewClients || st.SidebarOpen || st.Pending == nil {
		t.Fatalf("state = %+v", st)
	}

	w = do(t, router, http.MethodGet, "/views/Klien", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view = %d", w.Code)
	}
	view := decode[viewBody](t, w)
	if view.InitialAction == nil || view.InitialAction.Action.EntityID != "CLI001" {
		t.Fatalf("initial action = %+v", view.InitialAction)
	}
	if _, ok := view.Data[store.NameClients]; !ok {
		t.Error("view data missing clients")
	}

	w = do(t, router, http.MethodPost, "/views/Klien/clear-action", nil)
	if !decode[map[string]bool](t, w)["cleared"] {
		t.Error("first clear should succeed")
	}
	w = do(t, router, http.MethodPost, "/views/Klien/clear-action", nil)
	if decode[map[string]bool](t, w)["cleared"] {
		t.Error("second clear should be a no-op")
	}

	w = do(t, router, http.MethodPost, "/navigation", map[string]string{"view": "Laporan"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown view = %d, want 400", w.Code)
	}
}

func TestAcknowledge(t *testing.T) {
	_, router := loggedIn(t)

	w := do(t, router, http.MethodPost, "/navigation", map[string]any{
		"view": "Proyek", "action": map[string]string{"kind": "VIEW_PROJECT_DETAILS", "entityId": "PRJ001"},
	})
	st := decode[navigation.State](t, w)

	w = do(t, router, http.MethodPost, "/navigation/ack", map[string]uint64{"id": st.Pending.ID + 1})
	if decode[map[string]any](t, w)["acknowledged"] != false {
		t.Error("acknowledging an unknown id should be a no-op")
	}
	w = do(t, router, http.MethodPost, "/navigation/ack", map[string]uint64{"id": st.Pending.ID})
	if decode[map[string]any](t, w)["acknowledged"] != true {
		t.Error("acknowledge failed")
	}
}

func TestViewReplaceRespectsCapabilities(t *testing.T) {
	_, router := loggedIn(t)

	w := do(t, router, http.MethodPut, "/views/Dashboard/collections/clients", `[]`)
	if w.Code != http.StatusConflict {
		t.Errorf("dashboard writing clients = %d, want 409", w.Code)
	}
	w = do(t, router, http.MethodPut, "/views/Paket/collections/add-ons", `[{"id":"ADD010","name":"Album","price":500000}]`)
	if w.Code != http.StatusOK {
		t.Errorf("packages writing add-ons = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestNotifications(t *testing.T) {
	_, router := loggedIn(t)

	w := do(t, router, http.MethodPost, "/notifications", map[string]any{"message": "Tersimpan", "durationMs": 60000})
	if w.Code != http.StatusCreated {
		t.Fatalf("publish = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/notifications", nil)
	if !strings.Contains(w.Body.String(), `"message":"Tersimpan"`) {
		t.Errorf("current = %s", w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/notifications", map[string]any{"message": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty message = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/notifications", map[string]any{"message": "x", "durationMs": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative duration = %d, want 400", w.Code)
	}
}

func TestCollectionOptimisticLocking(t *testing.T) {
	_, router := loggedIn(t)

	w := do(t, router, http.MethodGet, "/collections/clients", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	body := `[{"id":"CLI001","name":"Satu Saja","status":"Aktif"}]`
	w = do(t, router, http.MethodPut, "/collections/clients", body, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("replace with current etag = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/collections/clients", body, "If-Match", etag)
	if w.Code != http.StatusConflict {
		t.Errorf("replace with stale etag = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/collections/clients", `[{"id":"CLI001","nickname":"x"}]`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", w.Code)
	}
}

func TestGetRecord(t *testing.T) {
	_, router := loggedIn(t)

	w := do(t, router, http.MethodGet, "/collections/projects/PRJ001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	if decode[models.Project](t, w).ID != "PRJ001" {
		t.Error("wrong project")
	}
	if w := do(t, router, http.MethodGet, "/collections/projects/PRJ404", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing record = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/collections/invoices", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown collection = %d, want 404", w.Code)
	}
}

func TestProfile(t *testing.T) {
	c, router := loggedIn(t)

	w := do(t, router, http.MethodPut, "/profile", map[string]any{"companyName": "Vena Pictures Bali", "projectTypes": []string{"Pernikahan"}})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	if got := c.Store.Profile().CompanyName; got != "Vena Pictures Bali" {
		t.Errorf("company = %q", got)
	}
	w = do(t, router, http.MethodGet, "/profile", nil)
	if decode[models.Profile](t, w).CompanyName != "Vena Pictures Bali" {
		t.Error("profile not returned")
	}
}

func TestAddLeadKeepsOrder(t *testing.T) {
	c, router := loggedIn(t)

	w := do(t, router, http.MethodPost, "/leads", map[string]string{"name": "Lama", "date": "2024-01-01T00:00:00Z"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d, body = %s", w.Code, w.Body.String())
	}
	leads := c.Store.Leads().Get()
	if leads[len(leads)-1].Name != "Lama" {
		t.Errorf("oldest lead should sort last, got %+v", leads)
	}
	if w := do(t, router, http.MethodPost, "/leads", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("nameless lead = %d, want 400", w.Code)
	}
}

func TestSettlements(t *testing.T) {
	c, router := loggedIn(t)
	before := len(c.Store.Transactions().Get())

	w := do(t, router, http.MethodPost, "/settlements", map[string]any{
		"teamMemberId": "TM001", "paymentIds": []string{"TPP001", "TPP404"},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing obligation = %d, want 404", w.Code)
	}
	if got := len(c.Store.Transactions().Get()); got != before {
		t.Errorf("failed settlement wrote %d transactions", got-before)
	}

	w = do(t, router, http.MethodPost, "/settlements", map[string]any{
		"teamMemberId": "TM001", "paymentIds": []string{"TPP001", "TPP003"}, "pocketId": "PKT002",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("settle = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[store.SettlementResult](t, w)
	if res.Transaction.Amount != -3000000 {
		t.Errorf("amount = %d", res.Transaction.Amount)
	}

	w = do(t, router, http.MethodPost, "/settlements", map[string]any{
		"teamMemberId": "TM001", "paymentIds": []string{"TPP001"},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("double payment = %d, want 409", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/screen", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/screen", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_NearMissTokens(t *testing.T) {
	_, router := testEnv(t, "secret123")

	for _, header := range []string{
		"Bearer secret124",
		"Bearer secret1234",
		"Bearer secret12",
		"Bearer ",
		"bearer secret123",
		"secret123",
	} {
		w := do(t, router, http.MethodGet, "/screen", nil, "Authorization", header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/screen", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

// SSE endpoint tests.

func TestSSEEvents_RequireSession(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE without session = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidTokenAndSession(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")
	w := do(t, router, http.MethodPost, "/session/login", map[string]string{
		"email": session.DefaultEmail, "password": session.DefaultPassword,
	}, "Authorization", "Bearer tok")
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("SSE = %d, want 200", rec.Code)
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test access to /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	c, err := console.New(testutil.Dataset(t), session.NewFlagStore(fs),
		console.WithSessionOptions(session.WithDelay(time.Millisecond)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)

	// Writes headers and blocks until the context is done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(c, authEnabled, token, sseHandler)
}
