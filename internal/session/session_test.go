package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bluestem-events/bluestem/internal/auth"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func newManager(t *testing.T, isDev bool, bootstrap Bootstrap) (*Manager, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewManager(mem, testutil.TestLogger(), isDev, bootstrap), mem
}

func seedAdmin(t *testing.T, mem *store.Memory, email, password string) model.Admin {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin, err := mem.CreateAdmin(context.Background(), store.CreateAdminParams{
		Email:        email,
		PasswordHash: hash,
		Name:         "Owner",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == model.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestLogin_Success(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	seedAdmin(t, mem, "owner@bluestem.events", "correct horse")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	admin, err := m.Login(context.Background(), w, r, "owner@bluestem.events", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if admin.Email != "owner@bluestem.events" {
		t.Errorf("Email = %q", admin.Email)
	}

	cookie := sessionCookie(t, w)
	if cookie.Value == "" {
		t.Fatal("empty session token")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("cookie should be SameSite=Lax")
	}
	if cookie.Secure {
		t.Error("cookie should not be Secure in development")
	}

	sess, err := mem.GetSession(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.AdminID != admin.ID {
		t.Errorf("AdminID = %d, want %d", sess.AdminID, admin.ID)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("session TTL looks wrong: %v", ttl)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	seedAdmin(t, mem, "owner@bluestem.events", "correct horse")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	_, err := m.Login(context.Background(), w, r, "owner@bluestem.events", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	seedAdmin(t, mem, "owner@bluestem.events", "correct horse")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	_, err := m.Login(context.Background(), w, r, "nobody@bluestem.events", "correct horse")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_RotatesPresentedToken(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	admin := seedAdmin(t, mem, "owner@bluestem.events", "correct horse")
	ctx := context.Background()

	// A pre-authentication token planted on the client.
	now := time.Now().UTC()
	if err := mem.CreateSession(ctx, store.CreateSessionParams{
		Token:     "planted-token",
		AdminID:   admin.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(model.SessionTTL),
	}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: "planted-token"})

	if _, err := m.Login(ctx, w, r, "owner@bluestem.events", "correct horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	cookie := sessionCookie(t, w)
	if cookie.Value == "planted-token" {
		t.Fatal("login reused the presented token")
	}
	if _, err := mem.GetSession(ctx, "planted-token"); !errors.Is(err, store.ErrNotFound) {
		t.Error("presented token should be revoked on login")
	}
}

func TestLogin_SweepsExpiredSessions(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	admin := seedAdmin(t, mem, "owner@bluestem.events", "correct horse")
	ctx := context.Background()

	now := time.Now().UTC()
	if err := mem.CreateSession(ctx, store.CreateSessionParams{
		Token:     "stale",
		AdminID:   admin.ID,
		CreatedAt: now.Add(-8 * 24 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if _, err := m.Login(ctx, w, r, "owner@bluestem.events", "correct horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := mem.GetSession(ctx, "stale"); !errors.Is(err, store.ErrNotFound) {
		t.Error("stale session should be swept on login")
	}
}

func TestLogin_UpgradesWeakHash(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	ctx := context.Background()

	weak, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	if _, err := mem.CreateAdmin(ctx, store.CreateAdminParams{
		Email:        "owner@bluestem.events",
		PasswordHash: string(weak),
		Name:         "Owner",
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if _, err := m.Login(ctx, w, r, "owner@bluestem.events", "correct horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	stored, err := mem.GetAdminByEmail(ctx, "owner@bluestem.events")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if stored.PasswordHash == string(weak) {
		t.Error("weak hash should be replaced on login")
	}
	if auth.NeedsRehash(stored.PasswordHash) {
		t.Error("stored hash still below the current cost after login")
	}
	if ok, err := auth.CheckPassword("correct horse", stored.PasswordHash); err != nil || !ok {
		t.Errorf("upgraded hash rejects the password: ok=%v err=%v", ok, err)
	}
}

func TestCurrentAdmin_ExpiredSessionDeleted(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	admin := seedAdmin(t, mem, "owner@bluestem.events", "correct horse")
	ctx := context.Background()

	now := time.Now().UTC()
	if err := mem.CreateSession(ctx, store.CreateSessionParams{
		Token:     "expired",
		AdminID:   admin.ID,
		CreatedAt: now.Add(-8 * 24 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: "expired"})

	if _, err := m.CurrentAdmin(ctx, w, r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	// Lazy expiry removed the row, not just rejected it.
	if _, err := mem.GetSession(ctx, "expired"); !errors.Is(err, store.ErrNotFound) {
		t.Error("expired session row should be deleted on read")
	}
	// The dead cookie is evicted from the client too.
	cookie := sessionCookie(t, w)
	if cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Errorf("expired session cookie not cleared: MaxAge=%d Value=%q", cookie.MaxAge, cookie.Value)
	}
}

func TestCurrentAdmin_UnknownTokenClearsCookie(t *testing.T) {
	m, _ := newManager(t, true, Bootstrap{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: "never-issued"})

	if _, err := m.CurrentAdmin(context.Background(), w, r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	cookie := sessionCookie(t, w)
	if cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Errorf("unknown session cookie not cleared: MaxAge=%d Value=%q", cookie.MaxAge, cookie.Value)
	}
}

func TestCurrentAdmin_NoCookie(t *testing.T) {
	m, _ := newManager(t, true, Bootstrap{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	if _, err := m.CurrentAdmin(context.Background(), w, r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	// Nothing to clear when the client sent nothing.
	if len(w.Result().Cookies()) != 0 {
		t.Errorf("no cookie presented, yet %d Set-Cookie headers written", len(w.Result().Cookies()))
	}
}

func TestLogout_Idempotent(t *testing.T) {
	m, mem := newManager(t, true, Bootstrap{})
	admin := seedAdmin(t, mem, "owner@bluestem.events", "correct horse")
	ctx := context.Background()

	loginW := httptest.NewRecorder()
	loginR := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if _, err := m.Login(ctx, loginW, loginR, admin.Email, "correct horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	token := sessionCookie(t, loginW).Value

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: token})

	if err := m.Logout(ctx, httptest.NewRecorder(), r); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := mem.GetSession(ctx, token); !errors.Is(err, store.ErrNotFound) {
		t.Error("session should be revoked on logout")
	}

	// Second logout with the same dead token still succeeds.
	if err := m.Logout(ctx, httptest.NewRecorder(), r); err != nil {
		t.Fatalf("Logout (repeat): %v", err)
	}

	// And logging out with no cookie at all.
	bare := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	if err := m.Logout(ctx, httptest.NewRecorder(), bare); err != nil {
		t.Fatalf("Logout (no cookie): %v", err)
	}
}

func TestBootstrap_ProvisionsOnce(t *testing.T) {
	bootstrap := Bootstrap{Email: "admin@bluestem.events", Password: "dev-password"}
	m, mem := newManager(t, true, bootstrap)
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	admin, err := m.Login(ctx, w, r, bootstrap.Email, bootstrap.Password)
	if err != nil {
		t.Fatalf("Login (bootstrap): %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("bootstrap admin not created")
	}

	// A second login authenticates against the stored account; no duplicate.
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if _, err := m.Login(ctx, w2, r2, bootstrap.Email, bootstrap.Password); err != nil {
		t.Fatalf("Login (second): %v", err)
	}
	count, err := mem.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("CountAdmins: %v", err)
	}
	if count != 1 {
		t.Errorf("admin count = %d, want 1", count)
	}

	// Password is stored hashed, not verbatim.
	stored, err := mem.GetAdminByEmail(ctx, bootstrap.Email)
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if stored.PasswordHash == bootstrap.Password {
		t.Error("bootstrap password stored in plaintext")
	}
}

func TestBootstrap_DisabledInProduction(t *testing.T) {
	bootstrap := Bootstrap{Email: "admin@bluestem.events", Password: "dev-password"}
	m, mem := newManager(t, false, bootstrap)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	_, err := m.Login(context.Background(), w, r, bootstrap.Email, bootstrap.Password)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	count, _ := mem.CountAdmins(context.Background())
	if count != 0 {
		t.Error("no admin should be provisioned in production")
	}
}

func TestBootstrap_SkippedWhenAdminsExist(t *testing.T) {
	bootstrap := Bootstrap{Email: "admin@bluestem.events", Password: "dev-password"}
	m, mem := newManager(t, true, bootstrap)
	seedAdmin(t, mem, "owner@bluestem.events", "correct horse")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	_, err := m.Login(context.Background(), w, r, bootstrap.Email, bootstrap.Password)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
