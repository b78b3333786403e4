// Package apperror はHTTPレスポンスに変換されるアプリケーションエラーと、
// エラーを (ステータスコード, メッセージ) に変換する公開ポリシーを提供する。
//
// 本番環境では5xxのエラーメッセージを固定文字列に置き換え、内部情報の漏洩を防ぐ。
// 4xxのメッセージ、およびExposeが指定されたエラーのメッセージは常に公開される。
package apperror
