package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrGroupNotFound        = errors.New("群组不存在")
	ErrNotMember            = errors.New("不是群成员")
	ErrNotAdmin             = errors.New("只有群主可以执行此操作")
	ErrAlreadyMember        = errors.New("用户已在群内")
	ErrDuplicateJoinRequest = errors.New("加群请求已存在")
	ErrCannotRemoveAdmin    = errors.New("不能移除群主")
	ErrRequestNotFound      = errors.New("加群请求不存在")
	ErrUserOffline          = errors.New("用户当前不在线")
	ErrJoinActionInvalid    = errors.New("无效的处理动作")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrGroupNotFound:        NotFound,
	ErrNotMember:            Unauthorized,
	ErrNotAdmin:             Unauthorized,
	ErrAlreadyMember:        BadRequest,
	ErrDuplicateJoinRequest: BadRequest,
	ErrCannotRemoveAdmin:    BadRequest,
	ErrRequestNotFound:      NotFound,
	ErrUserOffline:          BadRequest,
	ErrJoinActionInvalid:    BadRequest,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}
