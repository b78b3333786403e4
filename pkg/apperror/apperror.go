package apperror

import (
	"errors"
	"net/http"
)

const (
	// MsgServerError は本番環境で5xxのメッセージを置き換える固定文字列。
	MsgServerError = "server_error"
	// MsgUnauthorized はPrincipalが無いリクエストへのメッセージ。
	MsgUnauthorized = "unauthorized"
	// MsgForbidden は要求ロールを持たないリクエストへのメッセージ。
	MsgForbidden = "forbidden"
	// MsgNotInProduction は開発環境限定のルートへの本番環境でのメッセージ。
	MsgNotInProduction = "not_in_production"
)

// Error はHTTPステータスコードと呼び出し元に見せるメッセージを持つエラー。
type Error struct {
	// Status はHTTPステータスコード。0の場合は500として扱う。
	Status int
	// Message はエラー自身のメッセージ。空の場合はErrのメッセージを使う。
	Message string
	// Expose は本番環境でもメッセージを公開するかを表す。
	Expose bool
	// Err は原因となったエラー。
	Err error
}

// Error はエラー文字列を返す。
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return http.StatusText(e.status())
	}
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// status は既定値を補ったステータスコードを返す。
func (e *Error) status() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// message はエラー自身のメッセージを返す。
func (e *Error) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error()
}

// New は指定したステータスコードとメッセージのErrorを生成する。
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Exposable は本番環境でもメッセージが公開されるErrorを生成する。
func Exposable(status int, message string) *Error {
	return &Error{Status: status, Message: message, Expose: true}
}

// Wrap はerrを原因とするErrorを生成する。
func Wrap(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

// Internal はerrを原因とする500のErrorを生成する。
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Err: err}
}

// Unauthorized はPrincipalが無いことを表す401のErrorを生成する。
func Unauthorized() *Error {
	return New(http.StatusUnauthorized, MsgUnauthorized)
}

// Forbidden は要求ロールを持たないことを表す403のErrorを生成する。
func Forbidden() *Error {
	return New(http.StatusForbidden, MsgForbidden)
}

// NotInProduction は本番環境で開発用ルートが呼ばれたことを表す400のErrorを生成する。
func NotInProduction() *Error {
	return New(http.StatusBadRequest, MsgNotInProduction)
}

// Respond はエラーをHTTPステータスコードと呼び出し元に見せるメッセージに変換する。
//
// メッセージはExposeが指定されている、ステータスが500未満、または本番環境でない
// 場合にエラー自身のメッセージとなり、それ以外は原因に関わらずMsgServerErrorとなる。
func Respond(err error, production bool) (int, string) {
	status := http.StatusInternalServerError
	message := MsgServerError
	expose := false

	var appErr *Error
	if errors.As(err, &appErr) {
		status = appErr.status()
		message = appErr.message()
		expose = appErr.Expose
	} else if err != nil {
		message = err.Error()
	}

	if expose || status < http.StatusInternalServerError || !production {
		return status, message
	}
	return status, MsgServerError
}
