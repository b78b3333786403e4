package auth

import (
	"context"
	"fmt"
)

// Directory はユーザーごとのロールレコードを保持する外部ストア。
// 2つの独立したレコード集合を同じ主体IDで引く読み取り専用の問い合わせを提供する。
// 障害は値ではなくエラーとして返し、部分的な結果は返さない。
type Directory interface {
	// ProfileRole は第1のレコード集合（プロフィール）のroleフィールドを返す。
	// レコードが無い場合はfoundがfalseとなる。
	ProfileRole(ctx context.Context, subjectID string) (role string, found bool, err error)
	// HasRoleGrant は第2のレコード集合に主体とroleを結びつけるレコードがあるかを返す。
	HasRoleGrant(ctx context.Context, subjectID, role string) (bool, error)
}

// isPrivileged はDirectoryを順に参照して主体がroleを持つかを判定する。
// 第1の集合だけで確定する場合は第2の集合を参照しない。
func isPrivileged(ctx context.Context, dir Directory, subjectID, role string) (bool, error) {
	profileRole, found, err := dir.ProfileRole(ctx, subjectID)
	if err != nil {
		return false, fmt.Errorf("プロフィールのロール取得に失敗: %w", err)
	}
	if found && profileRole == role {
		return true, nil
	}

	granted, err := dir.HasRoleGrant(ctx, subjectID, role)
	if err != nil {
		return false, fmt.Errorf("ロール付与レコードの取得に失敗: %w", err)
	}
	return granted, nil
}
