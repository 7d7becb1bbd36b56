package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrConversation      = errors.New("会话不存在")
	ErrNoSession         = errors.New("没有活跃的实时会话")
	ErrSessionClosed     = errors.New("实时会话已关闭")
	ErrSessionStarted    = errors.New("实时会话已启动")
	ErrMissingLoginToken = errors.New("缺少登录凭据")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrConversation:      NotFound,
	ErrNoSession:         NotFound,
	ErrSessionClosed:     Conflict,
	ErrSessionStarted:    Conflict,
	ErrMissingLoginToken: Unauthorized,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}

// CodeOf 业务错误码，支持被 %w 包装过的错误
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for known, code := range ErrorMap {
		if errors.Is(err, known) {
			return code, true
		}
	}
	return 0, false
}
