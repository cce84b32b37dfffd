package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)

// CreateUser inserts a new user and returns its id.
func (repo *Repository) CreateUser(user *User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, role, full_name, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := repo.dbConn.Exec(query, user.Username, user.Email, user.PasswordHash, user.Role, user.FullName, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("creating user %s: %w", user.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user id for %s: %w", user.Username, err)
	}
	return id, nil
}

// GetUserByUsername retrieves a user by username.
func (repo *Repository) GetUserByUsername(username string) (*User, error) {
	var user User
	query := `SELECT id, username, email, password_hash, role, full_name, created_at
	          FROM users WHERE username = ?`

	if err := repo.dbConn.Get(&user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("retrieving user %s: %w", username, err)
	}
	return &user, nil
}
