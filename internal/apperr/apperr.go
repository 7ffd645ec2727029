package apperr

import (
	"errors"
	"fmt"
)

// 核心服务的错误分类，handler 层据此映射HTTP状态码
var (
	// ErrValidation 请求字段缺失、格式错误或自引用
	ErrValidation = errors.New("参数校验失败")

	// ErrForbidden 调用者不是参与者/所有者，或关系已被拉黑
	ErrForbidden = errors.New("没有权限")

	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("记录不存在")

	// ErrUpstream 存储层或外部依赖不可用
	ErrUpstream = errors.New("上游服务失败")
)

// ConflictError 创建时发现已有记录
// 携带已存在的资源，调用方可以据其状态分支处理而不是盲目重试
type ConflictError struct {
	Existing interface{}
}

func (e *ConflictError) Error() string {
	return "记录已存在"
}

// Conflict 构造冲突错误
func Conflict(existing interface{}) error {
	return &ConflictError{Existing: existing}
}

// AsConflict 判断并取出冲突错误
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Validation 带说明的参数错误
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Forbidden 带说明的权限错误
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}
