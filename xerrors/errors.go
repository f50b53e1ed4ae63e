// Package xerrors 提供带类型、错误码、上下文与堆栈的结构化错误.
package xerrors

import (
	"fmt"
	"runtime"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorType 错误的大类
type ErrorType uint

const (
	ErrUnknown ErrorType = iota
	ErrInternal
	ErrInvalidArg
	ErrNotFound
	ErrCorrupt
	ErrUnsupported
)

// Error 增强型错误结构
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    int            `json:"code"`    // 业务自定义错误码
	Message string         `json:"message"` // 对外展示的友好消息
	Detail  string         `json:"detail"`  // 对内调试的详细信息
	Cause   error          `json:"-"`       // 原始错误
	Stack   []string       `json:"stack"`   // 堆栈追踪
	Context map[string]any `json:"context"` // 上下文数据 (tag, msg_type 等)
}

// Error 实现 error 接口
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %d: %s", e.Type.String(), e.Code, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (Cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap 实现 Go 1.13 解包接口
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按 Type 与 Code 判等, 使 Derive 出的实例可以用 errors.Is 匹配哨兵错误.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Code == e.Code
}

func (t ErrorType) String() string {
	names := [...]string{"Unknown", "Internal", "InvalidArg", "NotFound", "Corrupt", "Unsupported"}
	if int(t) >= len(names) {
		return "Unknown"
	}
	return names[t]
}

// New 创建新错误并自动捕获堆栈
func New(errType ErrorType, code int, message string, detail string, cause error) *Error {
	e := &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
		Context: make(map[string]any),
	}
	e.captureStack()
	return e
}

// captureStack 捕获当前调用栈 (深度限制 10 层)
func (e *Error) captureStack() {
	const depth = 10
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // 跳过 captureStack, New 和上层构造函数
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		e.Stack = append(e.Stack, fmt.Sprintf("%s:%d (%s)", frame.File, frame.Line, frame.Function))
		if !more || len(e.Stack) >= depth {
			break
		}
	}
}

// Derive 基于哨兵错误派生一个新实例, 保留 Type/Code/Message, 重新捕获堆栈.
// 哨兵本身是共享的, 上下文只能挂在派生出的实例上.
func (e *Error) Derive(format string, args ...any) *Error {
	d := &Error{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Detail:  fmt.Sprintf(format, args...),
		Context: make(map[string]any),
	}
	d.captureStack()
	return d
}

// --- 链式 API ---

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// --- 快捷构造工具 ---

func Internal(msg string, cause error) *Error {
	return New(ErrInternal, 500, msg, "", cause)
}

func InvalidArg(msg string) *Error {
	return New(ErrInvalidArg, 400, msg, "", nil)
}

func NotFound(msg string) *Error {
	return New(ErrNotFound, 404, msg, "", nil)
}

// Wrap 包装现有错误并捕获堆栈
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	return New(errType, int(errType), msg, "", err)
}

// --- 协议转换 ---

// GRPCCode 自动映射 gRPC 状态码
func (e *Error) GRPCCode() codes.Code {
	switch e.Type {
	case ErrInvalidArg:
		return codes.InvalidArgument
	case ErrNotFound:
		return codes.NotFound
	case ErrCorrupt:
		return codes.DataLoss
	case ErrUnsupported:
		return codes.Unimplemented
	default:
		return codes.Internal
	}
}

// ToGRPCStatus 将 Error 转换为 gRPC Status
func (e *Error) ToGRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Error())
}

// FromError 尝试沿错误链转换为 *Error
func FromError(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
