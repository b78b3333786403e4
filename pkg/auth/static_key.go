package auth

import "crypto/subtle"

const (
	// StaticKeyPrincipalID は静的キーで解決されたPrincipalの固定ID。
	StaticKeyPrincipalID = "static-admin"
	// StaticKeyPrincipalEmail は静的キーで解決されたPrincipalの固定メールアドレス。
	StaticKeyPrincipalEmail = "admin@static.local"
)

// StaticKeyResolver は設定された共有シークレットとの完全一致でPrincipalを解決する。
type StaticKeyResolver struct {
	key []byte
}

// NewStaticKeyResolver は新しいStaticKeyResolverを生成する。
// keyが空の場合はnilを返す。nilのResolverは何も解決しない。
func NewStaticKeyResolver(key string) *StaticKeyResolver {
	if key == "" {
		return nil
	}
	return &StaticKeyResolver{key: []byte(key)}
}

// Resolve はrawTokenが設定キーと一致する場合に固定の管理者Principalを返す。
func (r *StaticKeyResolver) Resolve(rawToken string) (*Principal, bool) {
	if r == nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(rawToken), r.key) != 1 {
		return nil, false
	}
	return &Principal{
		ID:       StaticKeyPrincipalID,
		Email:    StaticKeyPrincipalEmail,
		Roles:    []string{RoleAdmin},
		Provider: ProviderStaticKey,
	}, true
}
