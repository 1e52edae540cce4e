package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/hci-lending/internal/models"
)

// ErrUserNotFound is returned when no user matches. Callers translate it into the
// domain error for the role the user plays (borrower, actor, login).
var ErrUserNotFound = errors.New("user not found")

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB DBTX
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{DB: db}
}

func (r *UserRepo) WithTx(tx *sql.Tx) *UserRepo {
	return &UserRepo{DB: tx}
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, full_name, COALESCE(password_hash, ''), role
		FROM users
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, full_name, COALESCE(password_hash, ''), role
		FROM users
		WHERE username = $1
	`
	return r.get(ctx, query, username)
}

func (r *UserRepo) get(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.FullName, &user.PasswordHash, &user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}
