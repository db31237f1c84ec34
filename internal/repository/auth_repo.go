package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"simdash/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

const (
	insertUserSQL        = `INSERT INTO users (email, password_hash) VALUES (?, ?)`
	selectUserByEmailSQL = `SELECT id, email, password_hash FROM users WHERE email = ?`
	selectUserByIDSQL    = `SELECT id, email, password_hash FROM users WHERE id = ?`
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(email, passwordHash string) (int, error) {
	email = normalizeEmail(email)
	res, err := r.db.Exec(insertUserSQL, email, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", email, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", email, err)
	}
	return int(lastID), nil
}

// GetByEmail fetches a user by email. Returns (nil, nil) if not found.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	email = normalizeEmail(email)
	return r.scanOne(r.db.QueryRow(selectUserByEmailSQL, email), "email "+email)
}

// GetByID fetches a user by id. Returns (nil, nil) if not found.
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	return r.scanOne(r.db.QueryRow(selectUserByIDSQL, id), fmt.Sprintf("id %d", id))
}

func (r *UserRepository) scanOne(row *sql.Row, what string) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user by %s: %w", what, err)
	}
	return &u, nil
}
