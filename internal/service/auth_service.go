package service

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quizzable/internal/config"
	"quizzable/internal/models"
	"quizzable/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrUserExists         = errors.New("a profile with that name already exists")
	ErrNoRememberedUser   = errors.New("no remembered user")
)

// rememberTokenTTL bounds how long a remembered login stays valid
const rememberTokenTTL = 90 * 24 * time.Hour

// AuthService manages user profiles and login
type AuthService struct {
	users  *repository.UserRepository
	config *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: users, config: cfg}
}

// CreateUser registers a new profile. An empty password leaves the profile
// open; anyone can select it at login.
func (s *AuthService) CreateUser(name, password string, timerMode models.TimerMode, defaultExamBoardID *int64) (*models.User, error) {
	user := &models.User{Name: name, TimerMode: timerMode}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	passwordHash := ""
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = string(hashed)
	}

	return s.users.CreateUser(name, passwordHash, timerMode, defaultExamBoardID)
}

// UserExists reports whether a profile with the given name exists
func (s *AuthService) UserExists(name string) (bool, error) {
	user, err := s.users.GetUserByName(name)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Login authenticates a profile by name. Profiles without a password accept
// any password, including none.
func (s *AuthService) Login(name, password string) (*models.User, error) {
	user, err := s.users.GetUserByName(name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
	}
	return user, nil
}

// RememberUser writes a signed token to disk so the next launch can skip the
// login screen
func (s *AuthService) RememberUser(user *models.User) error {
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(rememberTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AuthSecret))
	if err != nil {
		return fmt.Errorf("failed to sign remember token: %w", err)
	}
	if err := os.WriteFile(s.config.TokenPath, []byte(signed), 0600); err != nil {
		return fmt.Errorf("failed to save remember token: %w", err)
	}
	return nil
}

// RememberedUser resolves the on-disk token back to a user. A missing,
// expired or tampered token yields ErrNoRememberedUser, never a hard failure.
func (s *AuthService) RememberedUser() (*models.User, error) {
	raw, err := os.ReadFile(s.config.TokenPath)
	if err != nil {
		return nil, ErrNoRememberedUser
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(string(raw), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.AuthSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoRememberedUser
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrNoRememberedUser
	}
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoRememberedUser
	}
	return user, nil
}

// ForgetUser removes any on-disk remember token
func (s *AuthService) ForgetUser() error {
	err := os.Remove(s.config.TokenPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove remember token: %w", err)
	}
	return nil
}

// UpdateSettings saves the user's timer preference and default exam board
func (s *AuthService) UpdateSettings(user *models.User, timerMode models.TimerMode, defaultExamBoardID *int64) error {
	updated := *user
	updated.TimerMode = timerMode
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := s.users.UpdateUserSettings(user.ID, timerMode, defaultExamBoardID); err != nil {
		return err
	}
	user.TimerMode = timerMode
	user.DefaultExamBoardID = defaultExamBoardID
	return nil
}
