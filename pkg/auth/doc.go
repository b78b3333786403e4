// Package auth はゲートウェイの認証・ロール認可の中核を提供する。
//
// リクエストから取り出した生トークンを順序付きのResolverで検証してPrincipalに解決し、
// Authorizerが要求ロールとの照合を行う。トークン内のロールで足りない場合のみ、
// RoleCacheを介してDirectoryへadminロールの昇格問い合わせを行う。
//
//	生トークン → Chain.Resolve() → Principal → Authorizer.Authorize() → 許可/拒否
//	                                              ↓ (不足時のみ)
//	                                   RoleCache → Directory
package auth
