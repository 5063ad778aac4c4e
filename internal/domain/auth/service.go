package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const sessionTTL = 8 * time.Hour

type Service struct {
	store  *Store
	secret string
	issuer string
}

func NewService(store *Store, secret, issuer string) *Service {
	return &Service{store: store, secret: secret, issuer: issuer}
}

type LoginResult struct {
	Token string
	User  AuthUser
}

// Login verifies the password and, when the account has MFA enabled,
// the TOTP code, then starts a session and issues an access token.
func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (*LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return nil, ErrMFARequired
		}
		if user.MFASecret == "" || !totp.Validate(mfaCode, user.MFASecret) {
			return nil, ErrMFAInvalid
		}
	}

	sessionID, err := NewSessionToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSession(ctx, user.ID, HashToken(sessionID), time.Now().Add(sessionTTL)); err != nil {
		return nil, err
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, Roles: user.Roles, SessionID: sessionID}, sessionTTL)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes the session behind the token. Best effort; an already
// revoked session is not an error.
func (s *Service) Logout(ctx context.Context, claims *Claims) {
	if claims == nil || claims.SessionID == "" {
		return
	}
	if err := s.store.RevokeSession(ctx, claims.UserID, HashToken(claims.SessionID)); err != nil {
		slog.Warn("logout session revoke failed", "userId", claims.UserID, "err", err)
	}
}

// Refresh rotates the session and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, claims *Claims) (string, error) {
	ok, err := s.store.SessionValid(ctx, claims.UserID, HashToken(claims.SessionID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSessionExpired
	}

	newSessionID, err := NewSessionToken()
	if err != nil {
		return "", err
	}
	if err := s.store.RotateSession(ctx, claims.UserID, HashToken(claims.SessionID), HashToken(newSessionID), time.Now().Add(sessionTTL)); err != nil {
		return "", err
	}

	roles, err := s.store.UserRoles(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	return GenerateToken(s.secret, Claims{UserID: claims.UserID, Roles: roles, SessionID: newSessionID}, sessionTTL)
}

// SetupMFA generates a new TOTP secret for the user and returns it
// with the otpauth provisioning URL. The flag stays off until a code
// is confirmed via EnableMFA.
func (s *Service) SetupMFA(ctx context.Context, userID, accountName string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return "", "", err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	return s.setMFA(ctx, userID, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, userID, code string) error {
	return s.setMFA(ctx, userID, code, false)
}

func (s *Service) setMFA(ctx context.Context, userID, code string, enabled bool) error {
	secret, err := s.store.GetMFASecret(ctx, userID)
	if err != nil {
		return err
	}
	if !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}

// ParseToken validates an access token against the service secret.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	return ParseToken(s.secret, tokenString)
}
