package middleware

import (
	"net/http"
	"strings"
	"unicode"
)

const (
	// headerAuthorization は資格情報を運ぶヘッダー。
	headerAuthorization = "Authorization"
	// bearerScheme はトークンの前に付くスキーム名。
	bearerScheme = "bearer"
)

// ExtractToken はAuthorizationヘッダーから生トークンを取り出す。
//
// "Bearer <token>" 形式（スキーム名は大文字小文字を区別しない）の場合は接頭辞を取り除き、
// スキーム名を省略したクライアントのためにそれ以外の値はそのまま返す。
// ヘッダー名は大文字小文字を区別しない。ヘッダーが無い、またはトリム後に空の場合は ("", false) を返す。
func ExtractToken(h http.Header) (string, bool) {
	value := strings.TrimLeftFunc(authorizationValue(h), unicode.IsSpace)
	if len(value) > len(bearerScheme) &&
		strings.EqualFold(value[:len(bearerScheme)], bearerScheme) &&
		unicode.IsSpace(rune(value[len(bearerScheme)])) {
		value = value[len(bearerScheme):]
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// authorizationValue はAuthorizationヘッダーの最初の値を返す。
// 正規化されていないキーで直接設定されたヘッダーも大文字小文字を区別せずに探す。
func authorizationValue(h http.Header) string {
	if v, ok := h[headerAuthorization]; ok {
		if len(v) == 0 {
			return ""
		}
		return v[0]
	}
	for key, v := range h {
		if strings.EqualFold(key, headerAuthorization) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
