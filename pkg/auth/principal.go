package auth

import (
	"context"
	"strings"
)

// Provider はPrincipalを解決した信頼メカニズムを表す。
type Provider string

const (
	// ProviderSignedToken は署名付きBearerトークンで解決されたことを表す。
	ProviderSignedToken Provider = "signed_token"
	// ProviderStaticKey は静的共有シークレットキーで解決されたことを表す。
	ProviderStaticKey Provider = "static_key"
)

// RoleAdmin は特権ロールの値。Directoryへの昇格問い合わせはこのロールに限られる。
const RoleAdmin = "admin"

// Principal はリクエストに紐づく検証済みのアイデンティティ。
// 資格情報の検証に成功した場合にのみ生成される。部分的・匿名のPrincipalは存在しない。
type Principal struct {
	// ID は発行元ごとに一意な主体識別子。
	ID string `json:"id"`
	// Email は表示用の識別子。空の場合がある。
	Email string `json:"email,omitempty"`
	// Roles は資格情報自体に含まれるロールの集合。順序に意味はない。
	Roles []string `json:"roles"`
	// Provider はこのPrincipalを解決した信頼メカニズム。
	Provider Provider `json:"provider"`
}

// HasAnyRole はPrincipalのロールとwantの共通部分が空でないかを大文字小文字を区別せずに判定する。
func (p *Principal) HasAnyRole(want ...string) bool {
	if p == nil {
		return false
	}
	have := roleSet(p.Roles)
	for _, r := range want {
		if _, ok := have[strings.ToLower(strings.TrimSpace(r))]; ok {
			return true
		}
	}
	return false
}

// roleSet はロールのスライスを小文字化した集合に変換する。空文字列は除外する。
func roleSet(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// contextKey はコンテキストキーの型。
type contextKey struct{}

// WithPrincipal はコンテキストにPrincipalを設定する。
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom はコンテキストからPrincipalを取得する。
// 設定されていない場合はnilを返す。これが唯一の未認証状態となる。
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}
