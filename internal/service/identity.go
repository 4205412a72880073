package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/mailer"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// DefaultPublicHost is used in emailed links when the request carries no host.
const DefaultPublicHost = "localhost:8000"

type IdentityConfig struct {
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
	ActivationTTL time.Duration
	ResetTTL      time.Duration
	PublicHost    string // used when the request carries no Host header
}

// Session is the result of a login or refresh.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	Password    string
}

type IdentityService struct {
	users  UserStore
	tokens TokenStore
	mail   mailer.Mailer
	cfg    IdentityConfig
	log    logrus.FieldLogger
	valid  *validator.Validate
	now    func() time.Time
}

func NewIdentityService(users UserStore, tokens TokenStore, mail mailer.Mailer, cfg IdentityConfig, log logrus.FieldLogger) *IdentityService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}
	if cfg.ActivationTTL <= 0 {
		cfg.ActivationTTL = 72 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.PublicHost == "" {
		cfg.PublicHost = DefaultPublicHost
	}
	return &IdentityService{
		users:  users,
		tokens: tokens,
		mail:   mail,
		cfg:    cfg,
		log:    log,
		valid:  validator.New(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.  Tests only.
func (s *IdentityService) SetClock(now func() time.Time) { s.now = now }

func checkPassword(field, pw string) error {
	if len(pw) < utils.MinPasswordLen {
		return Invalid(field, fmt.Sprintf("password must be at least %d characters", utils.MinPasswordLen))
	}
	return nil
}

func hostOrDefault(host string) string {
	if strings.TrimSpace(host) == "" {
		return DefaultPublicHost
	}
	return host
}

func (s *IdentityService) linkHost(host string) string {
	if strings.TrimSpace(host) == "" {
		return s.cfg.PublicHost
	}
	return host
}

// ActivationLink builds the emailed activation URL.
func ActivationLink(host string, userID uint64, token string) string {
	return fmt.Sprintf("http://%s/api/activate/%s/%s/", hostOrDefault(host), utils.EncodeUID(userID), token)
}

// Register creates an inactive user and emails an activation link.  A mail
// failure is logged; the account still exists.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput, host string) (model.User, error) {
	v := &ValidationError{Fields: map[string]string{}}
	in.Email = repository.NormalizeEmail(in.Email)
	if err := s.valid.Var(in.Email, "required,email"); err != nil {
		v.Fields["email"] = "a valid email is required"
	}
	if len(in.Password) < utils.MinPasswordLen {
		v.Fields["password"] = fmt.Sprintf("password must be at least %d characters", utils.MinPasswordLen)
	}
	if len(v.Fields) > 0 {
		return model.User{}, v
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, translate(err, "email already registered")
	}

	raw, err := s.issueUserToken(ctx, u.ID, model.TokenActivation, s.cfg.ActivationTTL)
	if err != nil {
		return model.User{}, err
	}
	msg := mailer.Message{
		To:      u.Email,
		Subject: "Activate your account",
		Body:    "Open this link to activate your account:\n" + ActivationLink(s.linkHost(host), u.ID, raw),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("activation mail failed")
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

func (s *IdentityService) issueUserToken(ctx context.Context, userID uint64, kind string, ttl time.Duration) (string, error) {
	raw, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}
	if err := s.tokens.CreateUserToken(ctx, userID, kind, utils.HashToken(raw), s.now().Add(ttl)); err != nil {
		return "", err
	}
	return raw, nil
}

// Activate consumes an activation token and enables the account.
func (s *IdentityService) Activate(ctx context.Context, uid, token string) error {
	userID, err := utils.DecodeUID(uid)
	if err != nil {
		return Invalid("uid", "invalid activation link")
	}
	owner, err := s.tokens.ConsumeUserToken(ctx, model.TokenActivation, utils.HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Invalid("token", "activation link is invalid or expired")
		}
		return err
	}
	if owner != userID {
		return Invalid("token", "activation link is invalid or expired")
	}
	if err := s.users.Activate(ctx, userID); err != nil {
		return translate(err, "user not found")
	}
	s.log.WithField("user_id", userID).Info("user activated")
	return nil
}

func (s *IdentityService) newSession(ctx context.Context, u model.User) (Session, error) {
	now := s.now()
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL, now)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL, now)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Login checks the credentials of an active user and issues a session.
func (s *IdentityService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrUnauthorized
	}
	return s.newSession(ctx, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// issued.
func (s *IdentityService) Refresh(ctx context.Context, raw string) (Session, error) {
	hash := utils.HashToken(strings.TrimSpace(raw))
	userID, err := s.tokens.ValidateRefresh(ctx, hash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if !u.IsActive {
		return Session{}, ErrUnauthorized
	}
	return s.newSession(ctx, u)
}

// Logout revokes one refresh token, or every token of userID when raw is
// empty.
func (s *IdentityService) Logout(ctx context.Context, userID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if userID == 0 {
			return Invalid("refresh_token", "refresh_token is required")
		}
		return s.tokens.RevokeAllForUser(ctx, userID)
	}
	hash := utils.HashToken(raw)
	owner, err := s.tokens.ValidateRefresh(ctx, hash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if userID != 0 && owner != userID {
		return ErrForbidden
	}
	return s.tokens.RevokeByHash(ctx, hash)
}

func (s *IdentityService) Me(ctx context.Context, userID uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	return u, translate(err, "user not found")
}

// ChangePassword verifies the old password, stores the new one and signs
// the user out everywhere.
func (s *IdentityService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if err := checkPassword("new_password", newPassword); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return translate(err, "user not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return ErrUnauthorized
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *IdentityService) setPassword(ctx context.Context, userID uint64, plain string) error {
	hash, err := utils.HashPassword(plain, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return translate(err, "user not found")
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// RequestPasswordReset mails a reset token when the email belongs to a
// user.  Unknown emails succeed silently.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email, host string) error {
	u, err := s.users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	raw, err := s.issueUserToken(ctx, u.ID, model.TokenPasswordReset, s.cfg.ResetTTL)
	if err != nil {
		return err
	}
	msg := mailer.Message{
		To:      u.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf("Use this token to reset your password: %s\nPOST it to http://%s/api/auth/password-reset/confirm",
			raw, s.linkHost(host)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("reset mail failed")
	}
	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := checkPassword("new_password", newPassword); err != nil {
		return err
	}
	userID, err := s.tokens.ConsumeUserToken(ctx, model.TokenPasswordReset, utils.HashToken(strings.TrimSpace(token)), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Invalid("token", "reset token is invalid or expired")
		}
		return err
	}
	s.log.WithField("user_id", userID).Info("password reset")
	return s.setPassword(ctx, userID, newPassword)
}
