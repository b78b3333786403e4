package directory

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/nao1215/travelgate/pkg/auth"
	"github.com/nao1215/travelgate/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ auth.Directory = (*SQLite)(nil)

// SQLite はSQLiteに保存されたロールレコードを参照するDirectory。
type SQLite struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLite はdsnのSQLiteデータベースを開き、スキーマを適用したSQLiteを返す。
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	s, err := NewSQLite(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite は既存のデータベース接続にスキーマを適用してSQLiteを返す。
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ProfileRole はprofilesテーブルのroleを返す。
func (s *SQLite) ProfileRole(ctx context.Context, subjectID string) (string, bool, error) {
	var role sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = ?`, subjectID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("profilesの取得に失敗: %w", err)
	}
	return role.String, true, nil
}

// HasRoleGrant はuser_rolesテーブルに主体とroleの組があるかを返す。
func (s *SQLite) HasRoleGrant(ctx context.Context, subjectID, role string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = ? AND role = ?)`,
		subjectID, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user_rolesの取得に失敗: %w", err)
	}
	return exists, nil
}

// SetProfileRole はprofilesのレコードを作成または更新する。roleが空の場合はNULLとする。
func (s *SQLite) SetProfileRole(ctx context.Context, subjectID, email, role string) error {
	var roleValue sql.NullString
	if role != "" {
		roleValue = sql.NullString{String: role, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, role) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			role = excluded.role,
			updated_at = datetime('now')
	`, subjectID, email, roleValue)
	if err != nil {
		return fmt.Errorf("profilesの保存に失敗: %w", err)
	}
	return nil
}

// GrantRole はuser_rolesに主体とroleの組を追加する。既に存在する場合は何もしない。
func (s *SQLite) GrantRole(ctx context.Context, subjectID, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`,
		subjectID, role,
	)
	if err != nil {
		return fmt.Errorf("user_rolesの保存に失敗: %w", err)
	}
	return nil
}
