package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesai/notes-backend/internal/models"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive is returned when a user is inactive
	ErrUserInactive = errors.New("user account is inactive")
	// ErrEmailAlreadyExists is returned when email is already registered
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUsernameAlreadyExists is returned when username is already taken
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session is expired or revoked
	ErrSessionExpired = errors.New("session expired")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserSession, error)
	Update(ctx context.Context, session *models.UserSession) error
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// Service is the session authority: accounts, token pairs and their sessions
type Service struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
	jwt         *JWTService
	logger      *logrus.Logger
}

func NewService(userRepo UserRepository, sessionRepo SessionRepository, jwtSecret, issuer string, logger *logrus.Logger) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwt:         NewJWTService(jwtSecret, issuer),
		logger:      logger,
	}
}

// SignUp registers a new user
func (s *Service) SignUp(ctx context.Context, email, username, password, fullName string) (*models.User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrEmailAlreadyExists
	}

	existingUser, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrUsernameAlreadyExists
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     fullName,
		IsActive:     true,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and opens a session
func (s *Service) Login(ctx context.Context, email, password, ipAddress, userAgent, deviceName string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", "", ErrUserInactive
	}

	now := time.Now()
	session := &models.UserSession{
		ID:               uuid.New(),
		UserID:           user.ID,
		ExpiresAt:        now.Add(AccessTokenTTL),
		RefreshExpiresAt: now.Add(RefreshTokenTTL),
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		DeviceName:       deviceName,
		CreatedAt:        now,
		LastActivity:     now,
	}

	accessToken, refreshToken, err := s.jwt.GenerateTokenPair(
		user.ID.String(),
		user.Email,
		user.Username,
		user.Role,
		session.ID.String(),
	)
	if err != nil {
		return nil, "", "", err
	}

	session.TokenHash = HashToken(accessToken)
	session.RefreshTokenHash = HashToken(refreshToken)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", "", err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login")
	}

	return user, accessToken, refreshToken, nil
}

// RefreshToken rotates the token pair of the session the refresh token belongs to
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	session, err := s.activeSession(ctx, claims.SessionID)
	if err != nil {
		return "", "", err
	}

	if session.RefreshTokenHash != HashToken(refreshToken) {
		return "", "", ErrInvalidToken
	}

	if session.RefreshExpiresAt.Before(time.Now()) {
		return "", "", ErrSessionExpired
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return "", "", err
	}
	if !user.IsActive {
		return "", "", ErrUserInactive
	}

	newAccessToken, newRefreshToken, err := s.jwt.GenerateTokenPair(
		user.ID.String(),
		user.Email,
		user.Username,
		user.Role,
		session.ID.String(),
	)
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	session.TokenHash = HashToken(newAccessToken)
	session.RefreshTokenHash = HashToken(newRefreshToken)
	session.ExpiresAt = now.Add(AccessTokenTTL)
	session.RefreshExpiresAt = now.Add(RefreshTokenTTL)
	session.LastActivity = now

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

// Logout revokes a session
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrSessionNotFound
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}

	now := time.Now()
	session.RevokedAt = &now
	return s.sessionRepo.Update(ctx, session)
}

// ValidateAccessToken answers "is there a valid session for this token" and
// returns the session's user
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*models.User, *JWTClaims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.activeSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}

	// a refresh rotates the pair, so earlier access tokens stop working
	if session.TokenHash != HashToken(token) {
		return nil, nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	session.LastActivity = time.Now()
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		s.logger.WithError(err).WithField("session_id", session.ID).Warn("failed to update session activity")
	}

	return user, claims, nil
}

// CleanupExpiredSessions removes expired and revoked sessions
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ChangePassword changes a user's password and signs out every other session
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}

	return s.sessionRepo.DeleteUserSessions(ctx, userID)
}

func (s *Service) activeSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.RevokedAt != nil {
		return nil, ErrSessionExpired
	}

	return session, nil
}
