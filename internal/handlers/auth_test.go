package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/models"
	"github.com/prostly/backend/internal/repositories"
)

func newAuthHandler(t *testing.T) (AuthHandler, *repositories.DocAccountRepository, *repositories.DocProfileRepository) {
	t.Helper()
	store := docstore.NewMemoryStore(nil)
	accounts := repositories.NewDocAccountRepository(store)
	profiles := repositories.NewDocProfileRepository(store)
	manager := auth.NewManager([]byte("test-secret"), "prostly-test", time.Minute, time.Hour, auth.NewInMemorySessionStore())

	handler := AuthHandler{Accounts: accounts, Profiles: profiles, Sessions: manager}
	return handler, accounts, profiles
}

func TestAuthHandlerSignUp(t *testing.T) {
	handler, accounts, profiles := newAuthHandler(t)

	body, err := json.Marshal(signUpRequest{Email: "test@example.com", Password: "supersafe", Name: "Testi"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	account, err := accounts.FindByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("expected account to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}

	profile, err := profiles.FindByUser(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("expected profile to be bootstrapped: %v", err)
	}
	if profile.Username != "Testi" || !profile.NotificationsEnabled {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestAuthHandlerSignUpRejectsShortPassword(t *testing.T) {
	handler, _, _ := newAuthHandler(t)

	body, _ := json.Marshal(signUpRequest{Email: "test@example.com", Password: "short"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAuthHandlerSignUpConflict(t *testing.T) {
	handler, _, _ := newAuthHandler(t)

	body, _ := json.Marshal(signUpRequest{Email: "dup@example.com", Password: "supersafe"})
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.SignUp(rec, req)
		if rec.Code != want {
			t.Fatalf("attempt %d: expected status %d got %d", i+1, want, rec.Code)
		}
	}
}

func TestAuthHandlerLoginBootstrapsProfile(t *testing.T) {
	handler, accounts, profiles := newAuthHandler(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	account := models.Account{
		ID:           "user-1",
		Email:        "login@example.com",
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	body, _ := json.Marshal(loginRequest{Email: "login@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	// The account had no profile; login creates one with the email-derived
	// username.
	profile, err := profiles.FindByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected profile after login: %v", err)
	}
	if profile.Username != "login" {
		t.Fatalf("expected username derived from email, got %q", profile.Username)
	}
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	handler, accounts, _ := newAuthHandler(t)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	_ = accounts.Create(context.Background(), models.Account{
		ID:           "user-1",
		Email:        "login@example.com",
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	})

	body, _ := json.Marshal(loginRequest{Email: "login@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefreshRotatesTokens(t *testing.T) {
	handler, _, _ := newAuthHandler(t)

	tokens, err := handler.Sessions.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	body, _ := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token to be issued")
	}
}

func TestAuthHandlerLogoutRevokesRefreshToken(t *testing.T) {
	handler, _, _ := newAuthHandler(t)

	tokens, err := handler.Sessions.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	body, _ := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	refreshBody, _ := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	refreshReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(refreshBody))
	refreshRec := httptest.NewRecorder()

	handler.Refresh(refreshRec, refreshReq)

	if refreshRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", refreshRec.Code)
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestAuthHandlerLoginRateLimited(t *testing.T) {
	handler, _, _ := newAuthHandler(t)
	handler.Limiter = denyAllLimiter{}

	body, _ := json.Marshal(loginRequest{Email: "login@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}
