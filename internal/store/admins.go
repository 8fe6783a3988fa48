// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bluestem-events/bluestem/internal/model"
)

// CreateAdminParams holds the fields for creating an admin account.
type CreateAdminParams struct {
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// CreateAdmin inserts a new admin account and returns it.
func (q *Queries) CreateAdmin(ctx context.Context, arg CreateAdminParams) (model.Admin, error) {
	const query = `
		INSERT INTO admins (email, password_hash, name, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, email, password_hash, name, created_at, last_login_at`

	var a model.Admin
	err := q.db.QueryRowContext(ctx, query,
		arg.Email, arg.PasswordHash, arg.Name, arg.CreatedAt,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt, &a.LastLoginAt)
	if err != nil {
		return model.Admin{}, fmt.Errorf("creating admin: %w", err)
	}
	return a, nil
}

// GetAdminByEmail looks up an admin by email.
func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	const query = `
		SELECT id, email, password_hash, name, created_at, last_login_at
		FROM admins WHERE email = ?`

	var a model.Admin
	err := q.db.QueryRowContext(ctx, query, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt, &a.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrNotFound
	}
	if err != nil {
		return model.Admin{}, fmt.Errorf("getting admin by email: %w", err)
	}
	return a, nil
}

// GetAdminByID looks up an admin by id.
func (q *Queries) GetAdminByID(ctx context.Context, id int64) (model.Admin, error) {
	const query = `
		SELECT id, email, password_hash, name, created_at, last_login_at
		FROM admins WHERE id = ?`

	var a model.Admin
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt, &a.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrNotFound
	}
	if err != nil {
		return model.Admin{}, fmt.Errorf("getting admin by id: %w", err)
	}
	return a, nil
}

// UpdateAdminLastLoginParams holds the fields for stamping a login.
type UpdateAdminLastLoginParams struct {
	ID          int64
	LastLoginAt time.Time
}

// UpdateAdminLastLogin stamps the admin's last login time.
func (q *Queries) UpdateAdminLastLogin(ctx context.Context, arg UpdateAdminLastLoginParams) error {
	const query = `UPDATE admins SET last_login_at = ? WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query, arg.LastLoginAt, arg.ID); err != nil {
		return fmt.Errorf("updating admin last login: %w", err)
	}
	return nil
}

// UpdateAdminPassword replaces the stored password hash. Used to upgrade
// hashes whose work factor has fallen behind the current default.
func (q *Queries) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE admins SET password_hash = ? WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("updating admin password: %w", err)
	}
	return nil
}

// CountAdmins returns the number of admin accounts.
func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}
