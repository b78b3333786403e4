package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/travelgate/internal/directory"
	"github.com/nao1215/travelgate/pkg/apperror"
	"github.com/nao1215/travelgate/pkg/auth"
	"github.com/nao1215/travelgate/pkg/middleware"
)

// directorySeeder は開発用ルートからロールレコードを登録できるDirectory。
type directorySeeder interface {
	SetProfileRole(ctx context.Context, subjectID, email, role string) error
	GrantRole(ctx context.Context, subjectID, role string) error
}

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// production は本番モードかどうか。
	production bool
	// authorizer はルートごとのロール判定を行う。
	authorizer *auth.Authorizer
	// seeder は開発用ルートの登録先。REST実装の場合はnil。
	seeder directorySeeder
	// closer はサーバー終了時に閉じるリソース。
	closer io.Closer
	// upstreamURL はプロキシ先の内部サービスURL。
	upstreamURL string
	// httpClient はプロキシに使うHTTPクライアント。
	httpClient *http.Client
}

// NewServer は設定に従ってDirectoryを開き、新しいGatewayサーバーを生成する。
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	switch cfg.DirectoryBackend {
	case BackendREST:
		dir := directory.NewREST(cfg.DirectoryURL, cfg.DirectoryServiceKey)
		return newServer(cfg, dir, nil, nil)
	default:
		dir, err := directory.OpenSQLite(ctx, cfg.DirectoryDSN)
		if err != nil {
			return nil, err
		}
		s, err := newServer(cfg, dir, dir, dir)
		if err != nil {
			_ = dir.Close()
			return nil, err
		}
		return s, nil
	}
}

// newServer は与えられたDirectoryでGatewayサーバーを生成する。
func newServer(cfg Config, dir auth.Directory, seeder directorySeeder, closer io.Closer) (*Server, error) {
	cache, err := auth.NewRoleCache(auth.WithMaxEntries(cfg.RoleCacheSize))
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Recovery(cfg.Production))
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))
	router.Use(middleware.ErrorHandler(cfg.Production))
	router.Use(middleware.Authenticate(newResolver(cfg)))

	s := &Server{
		router:      router,
		port:        cfg.Port,
		production:  cfg.Production,
		authorizer:  auth.NewAuthorizer(cache, dir),
		seeder:      seeder,
		closer:      closer,
		upstreamURL: cfg.UpstreamURL,
		httpClient:  &http.Client{},
	}
	s.setupRoutes()

	return s, nil
}

// newResolver は設定されている資格情報だけを順に試すResolverを生成する。
// 署名付きトークンを静的キーより先に試す。
func newResolver(cfg Config) auth.Resolver {
	var resolvers []auth.Resolver
	if r := auth.NewSignedTokenResolver(cfg.JWTSecret); r != nil {
		resolvers = append(resolvers, r)
	}
	if r := auth.NewStaticKeyResolver(cfg.StaticAdminKey); r != nil {
		resolvers = append(resolvers, r)
	}
	return auth.NewChain(resolvers...)
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はサーバーが保持するリソースを解放する。
func (s *Server) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		// ユーザー情報
		api.GET("/me", middleware.RequireAuth(), s.handleGetCurrentUser())
		api.GET("/me/admin", middleware.RequireRole(s.authorizer, auth.RoleAdmin), s.handleRoleCheck())

		// 予約（プロキシ）
		api.Any("/bookings/*path", middleware.RequireAuth(), s.handleProxy())

		// 管理API（プロキシ）
		api.Any("/admin/*path", middleware.RequireRole(s.authorizer, auth.RoleAdmin), s.handleProxy())
	}

	// 開発用のロールレコード登録
	dev := s.router.Group("/dev/directory")
	dev.Use(middleware.DevOnly(s.production))
	{
		dev.POST("/profiles", s.handleSeedProfile())
		dev.POST("/grants", s.handleSeedGrant())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
}

// handleGetCurrentUser は認証済みユーザーのPrincipalを返すハンドラを返す。
func (s *Server) handleGetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.GetPrincipal(c))
	}
}

// handleRoleCheck はadminとして許可された際の有効ロールを返すハンドラを返す。
func (s *Server) handleRoleCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    middleware.GetUserID(c),
			"roles": middleware.GetEffectiveRoles(c),
		})
	}
}

// handleProxy はリクエストパスをそのまま内部サービスに転送するハンドラを返す。
func (s *Server) handleProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		proxyURL := s.upstreamURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			proxyURL += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, c.Request.Method, proxyURL)
	}
}

// doProxy はリクエストを内部サービスにプロキシする共通処理。
// 資格情報とユーザーID、リクエストIDのヘッダーを転送する。静的管理キーは転送しない。
func (s *Server) doProxy(c *gin.Context, method, url string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), method, url, c.Request.Body)
	if err != nil {
		_ = c.Error(apperror.Internal(fmt.Errorf("プロキシリクエストの作成に失敗: %w", err)))
		return
	}

	// 元のリクエストヘッダーを転送
	if ct := c.GetHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	// 静的管理キーは内部サービスに渡さず、X-User-IDで主体を伝える
	if authz := c.GetHeader("Authorization"); authz != "" && !isStaticKeyPrincipal(c) {
		req.Header.Set("Authorization", authz)
	}
	req.Header.Set("X-User-ID", middleware.GetUserID(c))
	req.Header.Set("X-Request-ID", middleware.GetRequestID(c))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[Proxy] 内部サービスとの通信に失敗: url=%s, error=%v", url, err)
		_ = c.Error(apperror.Wrap(http.StatusBadGateway, "bad_gateway", err))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = c.Error(apperror.Internal(fmt.Errorf("レスポンスの読み取りに失敗: %w", err)))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, body)
}

// isStaticKeyPrincipal はリクエストの主体が静的管理キーで認証されたかを返す。
func isStaticKeyPrincipal(c *gin.Context) bool {
	p := middleware.GetPrincipal(c)
	return p != nil && p.Provider == auth.ProviderStaticKey
}

// seedProfileRequest はプロフィール登録リクエスト。
type seedProfileRequest struct {
	ID    string `json:"id" binding:"required"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// seedGrantRequest はロール付与リクエスト。
type seedGrantRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// handleSeedProfile はプロフィールを登録するハンドラを返す。
func (s *Server) handleSeedProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.seeder == nil {
			_ = c.Error(errDirectoryReadOnly())
			return
		}
		var req seedProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperror.Wrap(http.StatusBadRequest, "invalid_request", err))
			return
		}
		if err := s.seeder.SetProfileRole(c.Request.Context(), req.ID, req.Email, req.Role); err != nil {
			_ = c.Error(apperror.Internal(err))
			return
		}
		c.JSON(http.StatusCreated, req)
	}
}

// handleSeedGrant はロール付与を登録するハンドラを返す。
func (s *Server) handleSeedGrant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.seeder == nil {
			_ = c.Error(errDirectoryReadOnly())
			return
		}
		var req seedGrantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperror.Wrap(http.StatusBadRequest, "invalid_request", err))
			return
		}
		if err := s.seeder.GrantRole(c.Request.Context(), req.UserID, req.Role); err != nil {
			_ = c.Error(apperror.Internal(err))
			return
		}
		c.JSON(http.StatusCreated, req)
	}
}

// errDirectoryReadOnly は登録に対応していないDirectoryを表すエラーを返す。
func errDirectoryReadOnly() error {
	return apperror.Exposable(http.StatusNotImplemented, "directory_read_only")
}
