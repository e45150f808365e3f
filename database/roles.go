package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"vesseladmin/internal/models"
)

// RoleStore manages roles, their permission bundles, and the permission
// resolution for users.
type RoleStore struct {
	db *sql.DB
}

// NewRoleStore creates a role store backed by the given connection pool.
func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{db: db}
}

// isSystemRole reports whether the id belongs to one of the two protected
// roles seeded at initialization.
func isSystemRole(roleId string) bool {
	return roleId == models.AdminRoleId || roleId == models.DefaultRoleId
}

// ById fetches a role with its permissions eagerly loaded.
func (s *RoleStore) ById(id string) (*models.Role, error) {
	var r models.Role
	err := s.db.QueryRow("SELECT id, name, created_at, updated_at FROM roles WHERE id = ?", id).
		Scan(&r.Id, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoleNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch role %s: %w", id, err)
	}

	if r.Permissions, err = s.rolePermissions(id); err != nil {
		return nil, err
	}
	return &r, nil
}

// ByIds batch-fetches roles with their permissions eagerly loaded. Unknown ids
// are silently skipped, matching batch-lookup semantics.
func (s *RoleStore) ByIds(ids []string) ([]models.Role, error) {
	if len(ids) == 0 {
		return []models.Role{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query("SELECT id, name, created_at, updated_at FROM roles WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-fetch roles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[roles] failed to close rows: %v", err)
		}
	}()

	roles := make([]models.Role, 0, len(ids))
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

	for i := range roles {
		if roles[i].Permissions, err = s.rolePermissions(roles[i].Id); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// ByName fetches a role by its unique name.
func (s *RoleStore) ByName(name string) (*models.Role, error) {
	var r models.Role
	err := s.db.QueryRow("SELECT id, name, created_at, updated_at FROM roles WHERE name = ?", name).
		Scan(&r.Id, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoleNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch role by name: %w", err)
	}
	return &r, nil
}

// List returns a page of roles matching the search term, newest first, with
// permissions loaded, together with the total match count.
func (s *RoleStore) List(searchTerm string, pageNumber, pageSize int) ([]models.Role, int, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	pattern := "%" + searchTerm + "%"

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM roles WHERE name LIKE ?", pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}

	rows, err := s.db.Query(`SELECT id, name, created_at, updated_at FROM roles
		WHERE name LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pattern, pageSize, (pageNumber-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[roles] failed to close rows: %v", err)
		}
	}()

	roles := make([]models.Role, 0, pageSize)
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.Id, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan role row: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate roles: %w", err)
	}

	for i := range roles {
		if roles[i].Permissions, err = s.rolePermissions(roles[i].Id); err != nil {
			return nil, 0, err
		}
	}
	return roles, total, nil
}

// Create persists a new role and links the given permissions. A duplicate
// name is reported as ErrRoleNameAlreadyUsed.
func (s *RoleStore) Create(role *models.Role, permissionIds []string) error {
	if role.Id == "" {
		role.Id = uuid.NewString()
	}
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT INTO roles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		role.Id, role.Name, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoleNameAlreadyUsed
		}
		return fmt.Errorf("failed to insert role: %w", err)
	}

	for _, pid := range permissionIds {
		if _, err := tx.Exec("INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)", role.Id, pid); err != nil {
			return fmt.Errorf("failed to link permission %s: %w", pid, err)
		}
	}

	return tx.Commit()
}

// Update renames a role and replaces its permission set. The two system roles
// are immutable.
func (s *RoleStore) Update(role *models.Role, permissionIds []string) error {
	if isSystemRole(role.Id) {
		return ErrCannotModifySystemRole
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE roles SET name = ?, updated_at = ? WHERE id = ?",
		role.Name, time.Now().UTC(), role.Id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoleNameAlreadyUsed
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrRoleNotFound
	}

	if permissionIds != nil {
		if _, err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", role.Id); err != nil {
			return fmt.Errorf("failed to clear permission links: %w", err)
		}
		for _, pid := range permissionIds {
			if _, err := tx.Exec("INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)", role.Id, pid); err != nil {
				return fmt.Errorf("failed to link permission %s: %w", pid, err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a role. System roles can never be deleted, and a role still
// assigned to at least one user is reported as ErrRoleInUse.
func (s *RoleStore) Delete(id string) error {
	if isSystemRole(id) {
		return ErrCannotModifySystemRole
	}

	count, err := s.UserCount(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear permission links: %w", err)
	}
	res, err := tx.Exec("DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrRoleNotFound
	}

	return tx.Commit()
}

// UserCount returns the number of users currently assigned to the role.
func (s *RoleStore) UserCount(roleId string) (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM user_roles WHERE role_id = ?", roleId).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count role users: %w", err)
	}
	return count, nil
}

// UserPermissions resolves the effective permission set of a user: the union,
// deduplicated by permission id, across all of the user's roles.
func (s *RoleStore) UserPermissions(userId string) ([]models.Permission, error) {
	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", userId).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists == 0 {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Query(`SELECT DISTINCT p.id, p.name
		FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		INNER JOIN user_roles ur ON rp.role_id = ur.role_id
		WHERE ur.user_id = ?`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user permissions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[roles] failed to close rows: %v", err)
		}
	}()

	permissions := make([]models.Permission, 0, 8)
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.Id, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan permission row: %w", err)
		}
		permissions = append(permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}
	return permissions, nil
}

// rolePermissions loads the permissions linked to a role.
func (s *RoleStore) rolePermissions(roleId string) ([]models.Permission, error) {
	rows, err := s.db.Query(`SELECT p.id, p.name FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		WHERE rp.role_id = ?`, roleId)
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[roles] failed to close rows: %v", err)
		}
	}()

	permissions := make([]models.Permission, 0, 8)
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.Id, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan permission row: %w", err)
		}
		permissions = append(permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}
	return permissions, nil
}
