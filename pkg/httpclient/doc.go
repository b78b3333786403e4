// Package httpclient は外部サービスのJSON APIを呼び出すHTTPクライアントを提供する。
//
// ホスト型データベースのREST APIに対するDirectoryの問い合わせなど、
// 認証ヘッダー付きでJSONを取得する通信パターンを統一する。
package httpclient
