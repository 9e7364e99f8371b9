package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/poinmhs/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// Authentication error codes
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenRevoked       = "TOKEN_REVOKED"
)

// AuthServiceConfig contains login throttling settings
type AuthServiceConfig struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles login, session validation and logout
type AuthService struct {
	users      identity.UserRepository
	students   student.StudentRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	students student.StudentRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if blacklist == nil {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	return &AuthService{
		users:      users,
		students:   students,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
	}
}

// Login verifies the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identifier := identity.NormalizeIdentifier(input.Identifier)
	s.logger.Info("Login attempt", zap.String("identifier", identifier))

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Unknown identifier during login", zap.String("identifier", identifier))
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if user.IsLocked() {
		s.logger.Warn("Login attempt for locked account", zap.String("identifier", identifier))
		return nil, shared.NewDomainError(CodeAccountLocked, "account is locked, try again later")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.users.Save(ctx, user); err != nil {
			s.logger.Error("Failed to record login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("identifier", identifier),
				zap.Int("max_attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError(CodeAccountLocked, "too many failed login attempts, account has been locked")
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("identifier", identifier),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, invalidCredentials()
	}

	token, err := s.jwtService.GenerateAccessToken(auth.Subject{
		UserID:     user.ID,
		Identifier: user.Identifier,
		Role:       string(user.Role),
		StudentID:  user.StudentID,
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "failed to generate access token", err)
	}

	user.RecordLoginSuccess()
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Error("Failed to record successful login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("identifier", identifier),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		User:        toUserInfo(user),
	}, nil
}

// Authenticate resolves an access token into the calling principal. Revoked
// tokens and tokens issued before a password change are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*access.Principal, *auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, shared.NewDomainError(CodeTokenExpired, "session has expired")
		}
		return nil, nil, shared.NewDomainError(CodeTokenInvalid, "invalid session token")
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if !revoked && claims.IssuedAt != nil {
		revoked, err = s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAt.Time)
		if err != nil {
			return nil, nil, err
		}
	}
	if revoked {
		return nil, nil, shared.NewDomainError(CodeTokenRevoked, "session has been revoked")
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, nil, shared.NewDomainError(CodeTokenInvalid, "invalid session token")
	}
	studentID, err := claims.GetStudentUUID()
	if err != nil {
		return nil, nil, shared.NewDomainError(CodeTokenInvalid, "invalid session token")
	}

	return &access.Principal{
		SubjectID:  userID,
		Role:       identity.Role(claims.Role),
		StudentID:  studentID,
		Identifier: claims.Identifier,
	}, claims, nil
}

// Logout revokes the token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, s.jwtService.GetRemainingTTL(claims)); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
		return shared.WrapDomainError("INTERNAL_ERROR", "failed to revoke session", err)
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

// Me returns the caller's credential and, for students, their record summary
func (s *AuthService) Me(ctx context.Context, p *access.Principal) (*MeResult, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, p.SubjectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("user")
		}
		return nil, err
	}

	result := &MeResult{User: toUserInfo(user)}
	if user.StudentID == nil {
		return result, nil
	}

	st, err := s.students.FindByID(ctx, *user.StudentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login user points at a missing student",
				zap.String("user_id", user.ID.String()),
				zap.String("student_id", user.StudentID.String()))
			return result, nil
		}
		return nil, err
	}
	result.Student = &StudentSummary{
		ID:         st.ID,
		NIM:        st.NIM,
		Name:       st.Profile.Name,
		Prodi:      st.Profile.Prodi,
		TotalPoin:  st.TotalPoin,
		TargetPoin: st.TargetPoin,
		FotoFileID: st.FotoFileID,
	}
	return result, nil
}

// ChangePassword replaces the caller's password after checking the old one.
// Every session issued before the change is revoked.
func (s *AuthService) ChangePassword(ctx context.Context, p *access.Principal, input ChangePasswordInput) error {
	if err := access.RequireAuthenticated(p); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, p.SubjectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError("user")
		}
		return err
	}

	if !user.VerifyPassword(input.OldPassword) {
		s.logger.Warn("Wrong current password on password change", zap.String("user_id", user.ID.String()))
		return shared.NewDomainError(CodeInvalidCredentials, "current password is incorrect")
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.Expiration()); err != nil {
		s.logger.Warn("Failed to revoke sessions after password change",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// SeedAdmin creates the bootstrap administrator unless the NIP is taken.
// Returns false when the account already existed.
func (s *AuthService) SeedAdmin(ctx context.Context, input SeedAdminInput) (bool, error) {
	exists, err := s.users.ExistsByIdentifier(ctx, input.NIP)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Info("Admin already present, skipping seed", zap.String("nip", identity.NormalizeIdentifier(input.NIP)))
		return false, nil
	}

	admin, err := identity.NewAdminUser(input.NIP, input.Name, input.Password)
	if err != nil {
		return false, err
	}
	if err := s.users.Save(ctx, admin); err != nil {
		return false, err
	}

	s.logger.Info("Admin seeded", zap.String("nip", admin.Identifier), zap.String("user_id", admin.ID.String()))
	return true, nil
}

func invalidCredentials() error {
	return shared.NewDomainError(CodeInvalidCredentials, "invalid identifier or password")
}

func toUserInfo(u *identity.User) UserInfo {
	var sid *uuid.UUID
	if u.StudentID != nil {
		id := *u.StudentID
		sid = &id
	}
	return UserInfo{
		ID:          u.ID,
		Identifier:  u.Identifier,
		Name:        u.Name,
		Role:        string(u.Role),
		StudentID:   sid,
		LastLoginAt: u.LastLoginAt,
	}
}
