package gateway

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// BackendSQLite はSQLiteのディレクトリを使う設定値。
	BackendSQLite = "sqlite"
	// BackendREST はREST APIのディレクトリを使う設定値。
	BackendREST = "rest"
)

// Config はGatewayサーバーの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// Production は本番モードかどうか。APP_ENV=production のときtrue。
	Production bool
	// JWTSecret は署名付きトークンを検証する共有秘密鍵。空の場合は署名付きトークン認証を無効にする。
	JWTSecret string
	// StaticAdminKey は静的管理キー。空の場合は静的キー認証を無効にする。
	StaticAdminKey string
	// DirectoryBackend はロールレコードの参照先（sqlite または rest）。
	DirectoryBackend string
	// DirectoryDSN はSQLiteディレクトリのDSN。
	DirectoryDSN string
	// DirectoryURL はRESTディレクトリのベースURL。
	DirectoryURL string
	// DirectoryServiceKey はRESTディレクトリのサービスキー。
	DirectoryServiceKey string
	// RoleCacheSize はロールキャッシュの最大エントリ数。0の場合は上限なし。
	RoleCacheSize int
	// UpstreamURL はプロキシ先の内部サービスURL。
	UpstreamURL string
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string
}

// LoadConfig は環境変数から設定を読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む。既存の環境変数は上書きしない。
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}

	cacheSize, err := strconv.Atoi(getEnvOr("ROLE_CACHE_SIZE", "0"))
	if err != nil || cacheSize < 0 {
		return Config{}, fmt.Errorf("ROLE_CACHE_SIZEが不正です: %q", os.Getenv("ROLE_CACHE_SIZE"))
	}

	cfg := Config{
		Port:                getEnvOr("PORT", "8080"),
		Production:          os.Getenv("APP_ENV") == "production",
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StaticAdminKey:      os.Getenv("STATIC_ADMIN_KEY"),
		DirectoryBackend:    getEnvOr("DIRECTORY_BACKEND", BackendSQLite),
		DirectoryDSN:        getEnvOr("DIRECTORY_DSN", "/data/directory.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),
		DirectoryURL:        os.Getenv("DIRECTORY_URL"),
		DirectoryServiceKey: os.Getenv("DIRECTORY_SERVICE_KEY"),
		RoleCacheSize:       cacheSize,
		UpstreamURL:         getEnvOr("UPSTREAM_URL", "http://localhost:8081"),
		FrontendURL:         getEnvOr("FRONTEND_URL", "http://localhost:3000"),
	}

	switch cfg.DirectoryBackend {
	case BackendSQLite:
	case BackendREST:
		if cfg.DirectoryURL == "" || cfg.DirectoryServiceKey == "" {
			return Config{}, errors.New("DIRECTORY_BACKEND=rest にはDIRECTORY_URLとDIRECTORY_SERVICE_KEYが必要です")
		}
	default:
		return Config{}, fmt.Errorf("未知のDIRECTORY_BACKEND: %q", cfg.DirectoryBackend)
	}

	if cfg.JWTSecret == "" && cfg.StaticAdminKey == "" {
		log.Printf("[Config] JWT_SECRETとSTATIC_ADMIN_KEYが未設定のため、すべてのリクエストは未認証として扱われます")
	}
	return cfg, nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
