package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"vesseladmin/internal/models"
)

const userColumns = "id, user_name, email, password, is_active, reset_token, reset_token_expires, created_at, updated_at"

// UserStore is the relational user directory.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store backed by the given connection pool.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var resetToken sql.NullString
	var resetTokenExpires sql.NullTime

	err := row.Scan(&u.Id, &u.UserName, &u.Email, &u.Password, &u.IsActive,
		&resetToken, &resetTokenExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if resetToken.Valid {
		u.ResetToken = &resetToken.String
	}
	if resetTokenExpires.Valid {
		t := resetTokenExpires.Time
		u.ResetTokenExpires = &t
	}
	return &u, nil
}

// ById fetches a user with its roles eagerly loaded.
func (s *UserStore) ById(id string) (*models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}

	if user.Roles, err = s.userRoles(id); err != nil {
		return nil, err
	}
	return user, nil
}

// ByEmail fetches a user by its unique email address.
func (s *UserStore) ByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}
	return user, nil
}

// ByResetToken fetches the user holding the given password-reset token.
func (s *UserStore) ByResetToken(resetToken string) (*models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE reset_token = ?", resetToken)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch user by reset token: %w", err)
	}
	return user, nil
}

// List returns a page of users matching the search term on email or user name,
// newest first, together with the total match count. Roles are loaded per user.
func (s *UserStore) List(searchTerm string, pageNumber, pageSize int) ([]models.User, int, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	pattern := "%" + searchTerm + "%"

	var total int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email LIKE ? OR user_name LIKE ?",
		pattern, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := s.db.Query("SELECT "+userColumns+` FROM users
		WHERE email LIKE ? OR user_name LIKE ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pattern, pattern, pageSize, (pageNumber-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[users] failed to close rows: %v", err)
		}
	}()

	users := make([]models.User, 0, pageSize)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	for i := range users {
		if users[i].Roles, err = s.userRoles(users[i].Id); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

// Create persists a new user with the given role assignments. The caller is
// expected to have hashed the password already. A duplicate email is reported
// as ErrEmailAlreadyUsed.
func (s *UserStore) Create(user *models.User, roleIds []string) error {
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO users (id, user_name, email, password, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Id, user.UserName, user.Email, user.Password, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	for _, roleId := range roleIds {
		if _, err := tx.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", user.Id, roleId); err != nil {
			return fmt.Errorf("failed to assign role %s: %w", roleId, err)
		}
	}

	return tx.Commit()
}

// Update rewrites the user's profile columns and, when roleIds is non-nil,
// replaces its role assignments.
func (s *UserStore) Update(user *models.User, roleIds []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE users SET user_name = ?, email = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		user.UserName, user.Email, user.IsActive, time.Now().UTC(), user.Id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrUserNotFound
	}

	if roleIds != nil {
		if _, err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", user.Id); err != nil {
			return fmt.Errorf("failed to clear role assignments: %w", err)
		}
		for _, roleId := range roleIds {
			if _, err := tx.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", user.Id, roleId); err != nil {
				return fmt.Errorf("failed to assign role %s: %w", roleId, err)
			}
		}
	}

	return tx.Commit()
}

// SetResetToken stores the password-reset token and its expiry for a user.
func (s *UserStore) SetResetToken(userId, resetToken string, expires time.Time) error {
	res, err := s.db.Exec(`UPDATE users SET reset_token = ?, reset_token_expires = ?, updated_at = ?
		WHERE id = ?`,
		resetToken, expires, time.Now().UTC(), userId)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword replaces the password hash and clears the reset token pair in
// one statement, keeping the two columns in lockstep.
func (s *UserStore) ResetPassword(userId, newPasswordHash string) error {
	res, err := s.db.Exec(`UPDATE users SET password = ?, reset_token = NULL, reset_token_expires = NULL, updated_at = ?
		WHERE id = ?`,
		newPasswordHash, time.Now().UTC(), userId)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user and, via cascade, its role assignments.
func (s *UserStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// userRoles loads the roles assigned to a user (without permissions).
func (s *UserStore) userRoles(userId string) ([]models.Role, error) {
	rows, err := s.db.Query(`SELECT r.id, r.name, r.created_at, r.updated_at
		FROM roles r INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = ?`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[users] failed to close rows: %v", err)
		}
	}()

	roles := make([]models.Role, 0, 2)
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.Id, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}
