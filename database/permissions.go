package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"vesseladmin/internal/models"
)

// PermissionStore reads the permission catalog. Permissions are reference data
// seeded at initialization; there is no write path.
type PermissionStore struct {
	db *sql.DB
}

// NewPermissionStore creates a permission store backed by the given pool.
func NewPermissionStore(db *sql.DB) *PermissionStore {
	return &PermissionStore{db: db}
}

// ById fetches a single permission.
func (s *PermissionStore) ById(id string) (*models.Permission, error) {
	var p models.Permission
	err := s.db.QueryRow("SELECT id, name FROM permissions WHERE id = ?", id).Scan(&p.Id, &p.Name)
	if err == sql.ErrNoRows {
		return nil, ErrPermissionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch permission %s: %w", id, err)
	}
	return &p, nil
}

// ByIds batch-fetches permissions. Unknown ids are silently skipped.
func (s *PermissionStore) ByIds(ids []string) ([]models.Permission, error) {
	if len(ids) == 0 {
		return []models.Permission{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query("SELECT id, name FROM permissions WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-fetch permissions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[permissions] failed to close rows: %v", err)
		}
	}()

	permissions := make([]models.Permission, 0, len(ids))
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

// List returns the full permission catalog ordered by id.
func (s *PermissionStore) List() ([]models.Permission, error) {
	rows, err := s.db.Query("SELECT id, name FROM permissions ORDER BY CAST(id AS INTEGER)")
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[permissions] failed to close rows: %v", err)
		}
	}()

	permissions := make([]models.Permission, 0, 16)
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
