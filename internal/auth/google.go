package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	sharedauth "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/auth"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/respond"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/users"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	subjectPrefix     = "google:"
	defaultStateTTL   = 5 * time.Minute
)

// Accounts persists the identity of a signed-in user.
type Accounts interface {
	UpsertFromAuth(ctx context.Context, id users.Identity) (models.User, error)
}

// GoogleService signs users in with Google (authorization code + PKCE), stores their
// account and hands the UI a session JWT.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	userInfoURL string
	stateTTL    time.Duration
	states      *stateStore
	accounts    Accounts
}

// NewGoogleService builds a GoogleService. accounts may be nil, in which case
// users are created lazily on their first write.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, accounts Accounts) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		uiRedirect:  uiRedirect,
		userInfoURL: googleUserInfoURL,
		stateTTL:    defaultStateTTL,
		states:      newStateStore(nil),
		accounts:    accounts,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	cfg := s.oauthConfig
	return cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.RedirectURL != "" && s.uiRedirect != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	s.states.put(state, verifier, s.stateTTL)

	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)))
}

func (s *GoogleService) callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		respond.Error(c, http.StatusBadRequest, "auth_denied", "Google sign-in was cancelled", gin.H{"reason": reason})
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	verifier, ok := s.states.consume(state)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		telemetry.Warn("auth.google.exchange_failed", map[string]any{"err": err})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		telemetry.Error("auth.google.profile_failed", map[string]any{"err": err})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}
	if profile.Sub == "" {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "invalid user profile", nil)
		return
	}
	if profile.Email != "" && !profile.VerifiedEmail {
		respond.Error(c, http.StatusForbidden, "email_unverified", "Google account email is not verified", nil)
		return
	}

	id := users.Identity{ID: subjectPrefix + profile.Sub, Email: profile.Email, Name: profile.Name}
	if s.accounts != nil && id.Email != "" {
		if _, err := s.accounts.UpsertFromAuth(ctx, id); err != nil {
			telemetry.Error("auth.google.upsert_failed", map[string]any{"user_id": id.ID, "err": err})
			respond.Error(c, http.StatusConflict, "auth_failed", "failed to store account", nil)
			return
		}
	}

	session, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:     id.ID,
		Email:   id.Email,
		Name:    id.Name,
		Picture: profile.Picture,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	target, err := appendToken(s.uiRedirect, session)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}

	telemetry.Info("auth.google.login", map[string]any{"user_id": id.ID})
	c.Redirect(http.StatusFound, target)
}

type googleProfile struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *GoogleService) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	resp, err := s.oauthConfig.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return googleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	// v2 userinfo calls the subject "id"
	if p.Sub == "" {
		p.Sub = p.ID
	}
	return p, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
