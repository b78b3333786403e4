// Package middleware はゲートウェイで使用するGinミドルウェアを提供する。
//
// Authorizationヘッダーからの資格情報の取り出し、Principalの解決、
// ルートごとのロール認可、エラーレスポンスへの変換、パニックリカバリ、
// リクエストID付与、CORS設定など、リクエストの入口で共通して使用するミドルウェアを含む。
package middleware
