package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.InstallationStore = (*InstallationRepo)(nil)

// InstallationRepo is the SQLite implementation of the InstallationStore port
// interface. Permissions are serialized as a JSON object in a TEXT column.
type InstallationRepo struct {
	db *DB
}

// NewInstallationRepo creates a new InstallationRepo backed by the given DB.
func NewInstallationRepo(db *DB) *InstallationRepo {
	return &InstallationRepo{db: db}
}

const installationColumns = `
	id, installation_id, user_id, account_login, account_id, account_type,
	repository_selection, permissions, app_slug, target_type, created_at, updated_at`

// Upsert inserts or patches an installation keyed by GitHub's installation id.
// created_at is only written on insert. The owner never changes; a conflicting
// row held by another user yields driven.ErrInstallationOwnedByOther.
func (r *InstallationRepo) Upsert(ctx context.Context, inst model.Installation) (model.Installation, error) {
	const query = `
		INSERT INTO installations (` + installationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(installation_id) DO UPDATE SET
			account_login = excluded.account_login,
			account_id = excluded.account_id,
			account_type = excluded.account_type,
			repository_selection = excluded.repository_selection,
			permissions = excluded.permissions,
			app_slug = excluded.app_slug,
			target_type = excluded.target_type,
			updated_at = excluded.updated_at
		WHERE installations.user_id = excluded.user_id
		RETURNING id, created_at
	`

	permissions := inst.Permissions
	if permissions == nil {
		permissions = map[string]string{}
	}
	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return model.Installation{}, fmt.Errorf("marshal permissions: %w", err)
	}

	now := time.Now().UTC()
	if inst.ID == "" {
		inst.ID = xid.New().String()
	}
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = now
	}

	var createdAt string
	err = r.db.Writer.QueryRowContext(ctx, query,
		inst.ID, inst.InstallationID, inst.UserID, inst.AccountLogin, inst.AccountID, inst.AccountType,
		string(inst.RepositorySelection), string(permissionsJSON), inst.AppSlug, inst.TargetType,
		formatTime(inst.CreatedAt), formatTime(inst.UpdatedAt),
	).Scan(&inst.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Installation{}, fmt.Errorf("upsert installation %d: %w", inst.InstallationID, driven.ErrInstallationOwnedByOther)
	}
	if err != nil {
		return model.Installation{}, fmt.Errorf("upsert installation %d: %w", inst.InstallationID, err)
	}

	inst.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Installation{}, fmt.Errorf("parse created_at: %w", err)
	}
	inst.Permissions = permissions

	return inst, nil
}

// GetByInstallationID returns the installation with GitHub's id, or nil, nil.
func (r *InstallationRepo) GetByInstallationID(ctx context.Context, installationID int64) (*model.Installation, error) {
	const query = `SELECT ` + installationColumns + ` FROM installations WHERE installation_id = ?`

	inst, err := scanInstallation(r.db.Reader.QueryRowContext(ctx, query, installationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get installation %d: %w", installationID, err)
	}
	return inst, nil
}

// ListByUser returns the user's installations ordered by account login.
func (r *InstallationRepo) ListByUser(ctx context.Context, userID string) ([]model.Installation, error) {
	const query = `
		SELECT ` + installationColumns + `
		FROM installations
		WHERE user_id = ?
		ORDER BY account_login, installation_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query installations for user %s: %w", userID, err)
	}
	defer rows.Close()

	installations := []model.Installation{}
	for rows.Next() {
		inst, err := scanInstallation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installation: %w", err)
		}
		installations = append(installations, *inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate installations: %w", err)
	}

	return installations, nil
}

// Delete removes an installation owned by userID.
func (r *InstallationRepo) Delete(ctx context.Context, userID string, installationID int64) error {
	const query = `DELETE FROM installations WHERE installation_id = ? AND user_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, installationID, userID)
	if err != nil {
		return fmt.Errorf("delete installation %d: %w", installationID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete installation %d: %w", installationID, driven.ErrInstallationNotFound)
	}

	return nil
}

func scanInstallation(s scanner) (*model.Installation, error) {
	var inst model.Installation
	var selection, permissionsJSON, createdAt, updatedAt string

	err := s.Scan(
		&inst.ID, &inst.InstallationID, &inst.UserID, &inst.AccountLogin, &inst.AccountID,
		&inst.AccountType, &selection, &permissionsJSON, &inst.AppSlug, &inst.TargetType,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.RepositorySelection = model.RepositorySelection(selection)

	if err := json.Unmarshal([]byte(permissionsJSON), &inst.Permissions); err != nil {
		return nil, fmt.Errorf("unmarshal permissions: %w", err)
	}

	inst.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	inst.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &inst, nil
}
