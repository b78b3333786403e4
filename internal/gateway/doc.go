// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// すべてのリクエストの資格情報をPrincipalに解決し、ルートごとに要求される
// ロールを判定したうえで内部サービスに転送する。外部からアクセス可能な唯一の
// サービスであり、セキュリティの境界線として機能する。
package gateway
