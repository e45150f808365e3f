package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"vesseladmin/internal/models"
)

// Domain errors surfaced by the stores. Handlers translate these to HTTP
// statuses at the request boundary.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyUsed       = errors.New("email has been used")
	ErrRoleNotFound           = errors.New("role not found")
	ErrRoleNameAlreadyUsed    = errors.New("role name has been used")
	ErrCannotModifySystemRole = errors.New("system role cannot be modified")
	ErrRoleInUse              = errors.New("role is still assigned to users")
	ErrPermissionNotFound     = errors.New("permission not found")
)

// Open sets up the SQLite connection pool with WAL mode and foreign keys
// enabled, creating the data directory if it does not exist yet.
func Open(dbDir string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*sql.DB, error) {
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dbDir, err)
	}
	dbPath := filepath.Join(dbDir, "users.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Printf("[database] warning: WAL mode not enabled: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("unable to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	log.Printf("[database] opened at %s", dbPath)
	return db, nil
}

// InitSchema creates the relational tables and seeds the read-only reference
// data: the permission catalog and the two system roles.
func InitSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			"id" TEXT NOT NULL PRIMARY KEY,
			"user_name" TEXT NOT NULL DEFAULT '',
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"is_active" INTEGER NOT NULL DEFAULT 1,
			"reset_token" TEXT,
			"reset_token_expires" TIMESTAMP,
			"created_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			"updated_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS roles (
			"id" TEXT NOT NULL PRIMARY KEY,
			"name" TEXT NOT NULL UNIQUE,
			"created_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			"updated_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS permissions (
			"id" TEXT NOT NULL PRIMARY KEY,
			"name" TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			"user_id" TEXT NOT NULL,
			"role_id" TEXT NOT NULL,
			PRIMARY KEY(user_id, role_id),
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(role_id) REFERENCES roles(id)
		);`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			"role_id" TEXT NOT NULL,
			"permission_id" TEXT NOT NULL,
			PRIMARY KEY(role_id, permission_id),
			FOREIGN KEY(role_id) REFERENCES roles(id) ON DELETE CASCADE,
			FOREIGN KEY(permission_id) REFERENCES permissions(id)
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := seed(db); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	log.Printf("[database] schema initialized")
	return nil
}

// seed inserts the permission catalog and the two protected system roles:
// admin (every permission) and the default user role (READ_USER only).
func seed(db *sql.DB) error {
	permissions := []models.Permission{
		{Id: "1", Name: models.PermCreateUser},
		{Id: "2", Name: models.PermReadUser},
		{Id: "3", Name: models.PermUpdateUser},
		{Id: "4", Name: models.PermDeleteUser},
		{Id: "5", Name: models.PermCreateRole},
		{Id: "6", Name: models.PermReadRole},
		{Id: "7", Name: models.PermUpdateRole},
		{Id: "8", Name: models.PermDeleteRole},
		{Id: "9", Name: models.PermReadPermission},
		{Id: "10", Name: models.PermCreateVessel},
		{Id: "11", Name: models.PermReadVessel},
		{Id: "12", Name: models.PermUpdateVessel},
		{Id: "13", Name: models.PermDeleteVessel},
	}
	for _, p := range permissions {
		if _, err := db.Exec("INSERT OR IGNORE INTO permissions (id, name) VALUES (?, ?)", p.Id, p.Name); err != nil {
			return err
		}
	}

	roles := []struct {
		id, name      string
		permissionIds []string
	}{
		{models.AdminRoleId, "admin", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13"}},
		{models.DefaultRoleId, "user", []string{"2"}},
	}
	for _, r := range roles {
		if _, err := db.Exec("INSERT OR IGNORE INTO roles (id, name) VALUES (?, ?)", r.id, r.name); err != nil {
			return err
		}
		for _, pid := range r.permissionIds {
			if _, err := db.Exec("INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)", r.id, pid); err != nil {
				return err
			}
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
