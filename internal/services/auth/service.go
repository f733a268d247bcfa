package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/core/domain"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Config struct {
	OTPTTL      time.Duration
	ResetTTL    time.Duration
	BcryptCost  int
	FrontendURL string
}

// Session is what a successful login or verification hands back.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Service struct {
	users    repository.UserRepository
	tokens   *utils.TokenManager
	notifier domain.Notifier
	files    domain.FileRemover
	cfg      Config
	now      func() time.Time
}

func NewService(users repository.UserRepository, tokens *utils.TokenManager, notifier domain.Notifier, files domain.FileRemover, cfg Config) *Service {
	return &Service{users: users, tokens: tokens, notifier: notifier, files: files, cfg: cfg, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) TokenTTL() time.Duration { return s.tokens.TTL() }

func (s *Service) session(user models.User) (Session, error) {
	token, err := s.tokens.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (s *Service) byEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.User{}, domain.NotFound("User")
		}
		return models.User{}, err
	}
	return user, nil
}

// checkUnique reports a conflict if another user already holds email or username.
func (s *Service) checkUnique(ctx context.Context, self primitive.ObjectID, email, username string) error {
	if email != "" {
		other, err := s.users.GetByEmail(ctx, email)
		if err == nil && other.ID != self {
			return domain.Conflict("Email is already registered")
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	if username != "" {
		other, err := s.users.GetByUsername(ctx, username)
		if err == nil && other.ID != self {
			return domain.Conflict("Username is already taken")
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *Service) issueOTP(user *models.User) error {
	otp, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(s.cfg.OTPTTL)
	user.OTP = otp
	user.OTPExpiration = &expires
	return nil
}

// Signup creates an unverified user and emails a one-time code. If the code
// cannot be delivered the user is removed again so the client can retry.
func (s *Service) Signup(ctx context.Context, input models.SignupInput) (models.User, error) {
	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if email == "" || username == "" || input.Password == "" {
		return models.User{}, domain.Validation("Username, email and password are required")
	}
	if len(input.Password) < 6 {
		return models.User{}, domain.Validation("Password must be at least 6 characters")
	}
	if err := s.checkUnique(ctx, primitive.NilObjectID, email, username); err != nil {
		return models.User{}, err
	}

	hash, err := utils.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return models.User{}, err
	}

	now := s.now().UTC()
	user := models.User{
		Username:     username,
		Email:        email,
		Password:     hash,
		Role:         models.RoleUser,
		IsActive:     true,
		ProfileImage: input.ProfileImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.issueOTP(&user); err != nil {
		return models.User{}, err
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.User{}, domain.Conflict("User already exists")
		}
		return models.User{}, err
	}

	if err := s.notifier.SendOTP(ctx, user, user.OTP); err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			logrus.WithError(delErr).WithField("user_id", user.ID.Hex()).Error("Failed to remove user after OTP delivery failure")
		}
		return models.User{}, domain.Unavailable("Could not send verification email, please try again", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "email": user.Email}).Info("User signed up")
	return user, nil
}

func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (Session, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(otp) == "" {
		return Session{}, domain.Validation("Email and OTP are required")
	}
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if user.Verified {
		return Session{}, domain.Validation("Account is already verified")
	}
	if user.OTP == "" || user.OTP != strings.TrimSpace(otp) {
		return Session{}, domain.Validation("Invalid OTP")
	}
	if user.OTPExpiration == nil || !s.now().Before(*user.OTPExpiration) {
		return Session{}, domain.Validation("OTP has expired")
	}

	user.Verified = true
	user.OTP = ""
	user.OTPExpiration = nil
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return Session{}, err
	}
	return s.session(user)
}

func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return domain.Validation("Account is already verified")
	}
	if err := s.issueOTP(&user); err != nil {
		return err
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}
	if err := s.notifier.SendOTP(ctx, user, user.OTP); err != nil {
		return domain.Unavailable("Could not send verification email, please try again", err)
	}
	return nil
}

// Login checks credentials. Unverified users may log in; inactive ones may not.
func (s *Service) Login(ctx context.Context, input models.LoginInput) (Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.Unauthorized("Invalid email or password")
		}
		return Session{}, err
	}
	if !utils.CheckPassword(user.Password, input.Password) {
		return Session{}, domain.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return Session{}, domain.Forbidden("Your account has been deactivated")
	}
	return s.session(user)
}

// ForgotPassword emails a reset link rooted at origin, or at the configured
// frontend URL when the request carried no Origin.
func (s *Service) ForgotPassword(ctx context.Context, email, origin string) error {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = s.cfg.FrontendURL
	}
	if origin == "" {
		return domain.Validation("Origin header is required")
	}
	if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
		return domain.Validation("Invalid origin")
	}

	user, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(s.cfg.ResetTTL)
	user.ResetPasswordToken = utils.HashToken(token)
	user.ResetPasswordExpires = &expires
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(origin, "/"), url.QueryEscape(token))
	if err := s.notifier.SendPasswordReset(ctx, user, link); err != nil {
		return domain.Unavailable("Could not send reset email, please try again", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return domain.Validation("Reset token is required")
	}
	if len(password) < 6 {
		return domain.Validation("Password must be at least 6 characters")
	}

	user, err := s.users.GetByResetToken(ctx, utils.HashToken(strings.TrimSpace(token)), s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Validation("Invalid or expired reset token")
		}
		return err
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	user.Password = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	logrus.WithField("user_id", user.ID.Hex()).Info("Password reset")
	return nil
}

func (s *Service) byID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.User{}, domain.NotFound("User")
		}
		return models.User{}, err
	}
	return user, nil
}

// Profile returns the caller's account. Unverified accounts are refused.
func (s *Service) Profile(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	user, err := s.byID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if !user.Verified {
		return models.User{}, domain.Forbidden("Please verify your email first")
	}
	return user, nil
}

// UpdateProfile changes username, email and profile image. A replaced image
// is deleted from disk.
func (s *Service) UpdateProfile(ctx context.Context, userID primitive.ObjectID, input models.UpdateProfileInput, profileImage string) (models.User, error) {
	user, err := s.byID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if err := s.checkUnique(ctx, user.ID, email, username); err != nil {
		return models.User{}, err
	}
	if email != "" {
		user.Email = email
	}
	if username != "" {
		user.Username = username
	}

	oldImage := ""
	if profileImage != "" && profileImage != user.ProfileImage {
		oldImage, user.ProfileImage = user.ProfileImage, profileImage
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return models.User{}, domain.Conflict("Email or username is already taken")
		}
		return models.User{}, err
	}
	if oldImage != "" && s.files != nil {
		s.files.Remove(oldImage)
	}
	return user, nil
}

// Authenticate resolves a session token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return models.User{}, domain.Unauthorized("Token has expired")
		}
		return models.User{}, domain.Unauthorized("Invalid token")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.User{}, domain.Unauthorized("Invalid token")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.User{}, domain.Unauthorized("User not found")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, domain.Forbidden("Your account has been deactivated")
	}
	return user, nil
}
