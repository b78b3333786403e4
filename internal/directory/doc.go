// Package directory はユーザーごとのロールレコードを保持するDirectoryの実装を提供する。
//
// プロフィール（profiles）とロール付与（user_roles）の2つのレコード集合を持ち、
// auth.Authorizerがadminへの昇格を確認する際に参照される。
// 開発環境で使うSQLite実装と、ホスト型データベースのREST APIを呼び出すREST実装がある。
package directory
