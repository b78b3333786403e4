package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/travelgate/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	// testSecret はテスト用のJWTシークレット。
	testSecret = "test-secret-key-for-unit-tests"
	// testStaticKey はテスト用の静的管理者キー。
	testStaticKey = "test-static-admin-key"
)

// signTestJWT はテスト用の署名付きトークンを生成する。
func signTestJWT(t *testing.T, secret, sub string, role any) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if role != nil {
		claims["role"] = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}
	return signed
}

// countingDirectory は呼び出し回数を数えるテスト用Directory。
type countingDirectory struct {
	admins map[string]bool
	calls  atomic.Int64
}

func (d *countingDirectory) ProfileRole(_ context.Context, subjectID string) (string, bool, error) {
	d.calls.Add(1)
	if d.admins[subjectID] {
		return auth.RoleAdmin, true, nil
	}
	return "", false, nil
}

func (d *countingDirectory) HasRoleGrant(context.Context, string, string) (bool, error) {
	return false, nil
}

// newAuthRouter はテスト用に認証・認可ミドルウェアを組み込んだルーターを生成する。
func newAuthRouter(t *testing.T, dir auth.Directory, production bool) *gin.Engine {
	t.Helper()

	cache, err := auth.NewRoleCache()
	if err != nil {
		t.Fatalf("NewRoleCache()でエラーが発生: %v", err)
	}
	authorizer := auth.NewAuthorizer(cache, dir)
	chain := auth.NewChain(auth.NewSignedTokenResolver(testSecret), auth.NewStaticKeyResolver(testStaticKey))

	router := gin.New()
	router.Use(RequestID(), ErrorHandler(production), Recovery(production), Authenticate(chain))
	router.GET("/me", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, GetPrincipal(c))
	})
	router.GET("/admin", RequireRole(authorizer, auth.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"roles": GetEffectiveRoles(c), "user_id": GetUserID(c)})
	})
	router.GET("/dev", DevOnly(production), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// doRequest はAuthorizationヘッダー付きでリクエストを送信する。
func doRequest(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// errorBody はレスポンスボディのerrorフィールドを取り出す。
func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v", err)
	}
	msg, _ := body["error"].(string)
	return msg
}

// TestAuthenticate はAuthenticateミドルウェアとRequireAuthを検証する。
func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンでPrincipalがコンテキストに設定されること", func(t *testing.T) {
		t.Parallel()

		router := newAuthRouter(t, &countingDirectory{}, true)
		w := doRequest(router, "/me", "Bearer "+signTestJWT(t, testSecret, "user-ok", "authenticated"))

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var p auth.Principal
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if p.ID != "user-ok" {
			t.Errorf("id = %q, want %q", p.ID, "user-ok")
		}
		if p.Provider != auth.ProviderSignedToken {
			t.Errorf("provider = %q, want %q", p.Provider, auth.ProviderSignedToken)
		}
	})

	t.Run("リクエストのcontext.ContextからもPrincipalを取得できること", func(t *testing.T) {
		t.Parallel()

		chain := auth.NewChain(auth.NewStaticKeyResolver(testStaticKey))
		var got *auth.Principal
		router := gin.New()
		router.Use(Authenticate(chain))
		router.GET("/ctx", func(c *gin.Context) {
			got = auth.PrincipalFrom(c.Request.Context())
			c.Status(http.StatusOK)
		})

		doRequest(router, "/ctx", testStaticKey)
		if got == nil || got.Provider != auth.ProviderStaticKey {
			t.Errorf("PrincipalFrom() = %v, want static_key principal", got)
		}
	})

	t.Run("Authorizationヘッダーが無い場合401とunauthorizedが返ること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, true), "/me", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := errorBody(t, w); got != "unauthorized" {
			t.Errorf("error = %q, want %q", got, "unauthorized")
		}
	})

	t.Run("トリム後に空のトークンの場合401が返ること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, true), "/me", "Bearer    ")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("無効なトークンの場合401が返ること", func(t *testing.T) {
		t.Parallel()

		router := newAuthRouter(t, &countingDirectory{}, true)
		for _, authz := range []string{
			"Bearer invalid-token-string",
			"Bearer " + signTestJWT(t, "different-secret", "user-x", "admin"),
		} {
			w := doRequest(router, "/me", authz)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d (%s)", w.Code, http.StatusUnauthorized, authz)
			}
		}
	})

	t.Run("Bearer接頭辞の無いトークンも受け付けられること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, true), "/me", signTestJWT(t, testSecret, "user-bare", nil))
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

// TestRequireRole はRequireRoleミドルウェアを検証する。
func TestRequireRole(t *testing.T) {
	t.Parallel()

	t.Run("Principalが無い場合401が返ること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, true), "/admin", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := errorBody(t, w); got != "unauthorized" {
			t.Errorf("error = %q, want %q", got, "unauthorized")
		}
	})

	t.Run("adminロールを持つトークンはDirectoryを呼ばずに許可されること", func(t *testing.T) {
		t.Parallel()

		dir := &countingDirectory{}
		router := newAuthRouter(t, dir, true)
		for _, role := range []any{"admin", []any{"user", "admin"}} {
			w := doRequest(router, "/admin", "Bearer "+signTestJWT(t, testSecret, "user-admin", role))
			if w.Code != http.StatusOK {
				t.Errorf("ステータスコード = %d, want %d (role=%v)", w.Code, http.StatusOK, role)
			}
		}
		if n := dir.calls.Load(); n != 0 {
			t.Errorf("Directory呼び出し回数 = %d, want 0", n)
		}
	})

	t.Run("ロールが不足する場合403とforbiddenが返ること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, true), "/admin", "Bearer "+signTestJWT(t, testSecret, "user-plain", "user"))
		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
		if got := errorBody(t, w); got != "forbidden" {
			t.Errorf("error = %q, want %q", got, "forbidden")
		}
	})

	t.Run("Directoryでadminと確認された場合は昇格して許可されること", func(t *testing.T) {
		t.Parallel()

		dir := &countingDirectory{admins: map[string]bool{"user-promoted": true}}
		router := newAuthRouter(t, dir, true)
		token := "Bearer " + signTestJWT(t, testSecret, "user-promoted", "authenticated")

		for range 3 {
			w := doRequest(router, "/admin", token)
			if w.Code != http.StatusOK {
				t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
			}
			var body struct {
				Roles []string `json:"roles"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスボディのパースに失敗: %v", err)
			}
			if !(&auth.Principal{Roles: body.Roles}).HasAnyRole(auth.RoleAdmin) {
				t.Errorf("roles = %v, adminを含むべき", body.Roles)
			}
		}
		if n := dir.calls.Load(); n != 1 {
			t.Errorf("Directory呼び出し回数 = %d, want 1", n)
		}
	})

	t.Run("静的キーはDirectoryを呼ばずに許可されること", func(t *testing.T) {
		t.Parallel()

		dir := &countingDirectory{}
		w := doRequest(newAuthRouter(t, dir, true), "/admin", "Bearer "+testStaticKey)
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if n := dir.calls.Load(); n != 0 {
			t.Errorf("Directory呼び出し回数 = %d, want 0", n)
		}
	})
}

// TestDevOnly はDevOnlyミドルウェアを検証する。
func TestDevOnly(t *testing.T) {
	t.Parallel()

	t.Run("本番環境では400とnot_in_productionが返ること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, true), "/dev", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if got := errorBody(t, w); got != "not_in_production" {
			t.Errorf("error = %q, want %q", got, "not_in_production")
		}
	})

	t.Run("開発環境ではハンドラが実行されること", func(t *testing.T) {
		t.Parallel()

		w := doRequest(newAuthRouter(t, &countingDirectory{}, false), "/dev", "")
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
