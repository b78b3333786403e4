package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// hmacMethods は受け付ける署名アルゴリズム。HMAC系のみで、none/RS系は拒否する。
var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

const (
	// claimEmail は標準のメールアドレスクレーム。
	claimEmail = "email"
	// claimUserMetadata はIDプロバイダ固有のユーザーメタデータクレーム。
	claimUserMetadata = "user_metadata"
	// claimRole はロールクレーム。未設定・文字列・配列のいずれの形もとり得る。
	claimRole = "role"
)

// SignedTokenResolver は共通鍵で署名されたJWTを検証してPrincipalに解決する。
type SignedTokenResolver struct {
	secret []byte
	parser *jwt.Parser
}

// NewSignedTokenResolver は新しいSignedTokenResolverを生成する。
// secretが空の場合はnilを返す。nilのResolverは何も解決しない。
func NewSignedTokenResolver(secret string) *SignedTokenResolver {
	if secret == "" {
		return nil
	}
	return &SignedTokenResolver{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods(hmacMethods)),
	}
}

// Resolve はトークンの署名と有効期限を検証し、クレームからPrincipalを構築する。
// 署名不正・形式不正・期限切れ・subクレーム欠落はすべて未解決として扱う。
func (r *SignedTokenResolver) Resolve(rawToken string) (*Principal, bool) {
	if r == nil {
		return nil, false
	}
	claims := jwt.MapClaims{}
	token, err := r.parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, false
	}

	return &Principal{
		ID:       sub,
		Email:    emailFromClaims(claims),
		Roles:    rolesFromClaim(claims[claimRole]),
		Provider: ProviderSignedToken,
	}, true
}

// emailFromClaims は標準のemailクレーム、なければuser_metadata.emailを返す。
func emailFromClaims(claims jwt.MapClaims) string {
	if email, ok := claims[claimEmail].(string); ok && email != "" {
		return email
	}
	if meta, ok := claims[claimUserMetadata].(map[string]any); ok {
		if email, ok := meta[claimEmail].(string); ok {
			return email
		}
	}
	return ""
}

// rolesFromClaim はロールクレームの3つの形（未設定・文字列・配列）を集合に正規化する。
// 空文字列や文字列以外の要素は捨てる。
func rolesFromClaim(v any) []string {
	var raw []string
	switch roles := v.(type) {
	case string:
		raw = []string{roles}
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = roles
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
