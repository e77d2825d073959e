package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user and populates its ID.  A duplicate email
// surfaces as ErrEmailTaken; the users.email column carries a unique
// index.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
    const q = `INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, u.Name, u.Email, u.PasswordHash, u.Role)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == mysqlDupEntry {
            return ErrEmailTaken
        }
        return fmt.Errorf("insert user: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    u.ID = uint64(id)
    return nil
}

// GetByEmail returns the user with the given email or ErrUserNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    const q = `SELECT id, name, email, password_hash, role, created_at, updated_at
               FROM users WHERE email = ?`
    var u model.User
    err := r.db.QueryRowContext(ctx, q, email).Scan(
        &u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}

// GetByID returns the user with the given ID or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    const q = `SELECT id, name, email, password_hash, role, created_at, updated_at
               FROM users WHERE id = ?`
    var u model.User
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}
