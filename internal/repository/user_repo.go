package repository

import (
	"database/sql"
	"fmt"
	"time"

	"quizzable/internal/database"
	"quizzable/internal/models"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user profile
func (r *UserRepository) CreateUser(name, passwordHash string, timerMode models.TimerMode, defaultExamBoardID *int64) (*models.User, error) {
	query := `
		INSERT INTO users (name, password_hash, timer_mode, default_examboard_id)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, name, passwordHash, int(timerMode), defaultExamBoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:                 id,
		Name:               name,
		PasswordHash:       passwordHash,
		TimerMode:          timerMode,
		DefaultExamBoardID: defaultExamBoardID,
		CreatedAt:          time.Now(),
	}, nil
}

// GetUserByID retrieves a user by id; returns nil when not found
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	return r.getUser("SELECT id, name, password_hash, timer_mode, default_examboard_id, created_at FROM users WHERE id = ?", id)
}

// GetUserByName retrieves a user by profile name; returns nil when not found
func (r *UserRepository) GetUserByName(name string) (*models.User, error) {
	return r.getUser("SELECT id, name, password_hash, timer_mode, default_examboard_id, created_at FROM users WHERE name = ?", name)
}

func (r *UserRepository) getUser(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var timerMode int
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.PasswordHash,
		&timerMode,
		&user.DefaultExamBoardID,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.TimerMode = models.TimerMode(timerMode)
	return user, nil
}

// ListUsers retrieves every user profile ordered by name
func (r *UserRepository) ListUsers() ([]models.User, error) {
	query := "SELECT id, name, password_hash, timer_mode, default_examboard_id, created_at FROM users ORDER BY name"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var timerMode int
		err := rows.Scan(&user.ID, &user.Name, &user.PasswordHash, &timerMode, &user.DefaultExamBoardID, &user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.TimerMode = models.TimerMode(timerMode)
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUserSettings saves a user's timer preference and default exam board
func (r *UserRepository) UpdateUserSettings(userID int64, timerMode models.TimerMode, defaultExamBoardID *int64) error {
	query := "UPDATE users SET timer_mode = ?, default_examboard_id = ? WHERE id = ?"
	_, err := r.db.Exec(query, int(timerMode), defaultExamBoardID, userID)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}
	return nil
}

// DeleteUser removes a user profile and their results
func (r *UserRepository) DeleteUser(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM results WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user results: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM users WHERE id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
