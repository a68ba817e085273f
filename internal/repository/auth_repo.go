package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"sensai/internal/models"
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
	insertUserSQL           = `INSERT INTO users (username, password_hash, anonymous) VALUES (?, ?, ?)`
	selectUserByUsernameSQL = `SELECT id, username, password_hash, anonymous FROM users WHERE username = ?`
	selectUserByIDSQL       = `SELECT id, username, password_hash, anonymous FROM users WHERE id = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(username, passwordHash string, anonymous bool) (int, error) {
	res, err := r.db.Exec(insertUserSQL, username, passwordHash, anonymous)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getOne(selectUserByUsernameSQL, username)
}

// GetByID fetches a user by ID. Returns (nil, nil) if not found.
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	return r.getOne(selectUserByIDSQL, id)
}

func (r *UserRepository) getOne(query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Anonymous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %v: %w", arg, err)
	}
	return &u, nil
}
