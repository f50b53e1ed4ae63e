package fix

import (
	"errors"

	"github.com/quickfixgo/enum"

	"github.com/wyfcoding/fixmsg/xerrors"
)

var (
	// ErrTypeMismatch 字段值与访问器类型不符或无法按该类型解析.
	ErrTypeMismatch = xerrors.New(xerrors.ErrInvalidArg, 460001, "type mismatch", "", nil)
	// ErrFieldNotFound 必需字段缺失.
	ErrFieldNotFound = xerrors.New(xerrors.ErrNotFound, 460002, "field not found", "", nil)
	// ErrStructural 报文结构错误: 重复组计数不符, 字段顺序异常等.
	ErrStructural = xerrors.New(xerrors.ErrCorrupt, 460003, "structural decode error", "", nil)
	// ErrChecksumMismatch CheckSum 与重新计算值不符.
	ErrChecksumMismatch = xerrors.New(xerrors.ErrCorrupt, 460004, "checksum mismatch", "", nil)
	// ErrBodyLengthMismatch BodyLength 与实际长度不符.
	ErrBodyLengthMismatch = xerrors.New(xerrors.ErrCorrupt, 460005, "body length mismatch", "", nil)
	// ErrUnknownMsgType 数据字典中没有该 MsgType.
	ErrUnknownMsgType = xerrors.New(xerrors.ErrUnsupported, 460006, "unsupported msg type", "", nil)
)

const (
	ctxTag     = "tag"
	ctxMsgType = "msg_type"
	ctxReason  = "reject_reason"
)

// RejectReason 对应 FIX SessionRejectReason(373).
type RejectReason = enum.SessionRejectReason

const (
	RejectInvalidTagNumber              = enum.SessionRejectReason_INVALID_TAG_NUMBER
	RejectRequiredTagMissing            = enum.SessionRejectReason_REQUIRED_TAG_MISSING
	RejectTagNotDefinedForMsgType       = enum.SessionRejectReason_TAG_NOT_DEFINED_FOR_THIS_MESSAGE_TYPE
	RejectTagWithoutValue               = enum.SessionRejectReason_TAG_SPECIFIED_WITHOUT_A_VALUE
	RejectValueIncorrect                = enum.SessionRejectReason_VALUE_IS_INCORRECT
	RejectIncorrectDataFormat           = enum.SessionRejectReason_INCORRECT_DATA_FORMAT_FOR_VALUE
	RejectInvalidMsgType                = enum.SessionRejectReason_INVALID_MSGTYPE
	RejectTagAppearsMoreThanOnce        = enum.SessionRejectReason_TAG_APPEARS_MORE_THAN_ONCE
	RejectTagOutOfOrder                 = enum.SessionRejectReason_TAG_SPECIFIED_OUT_OF_REQUIRED_ORDER
	RejectGroupFieldsOutOfOrder         = enum.SessionRejectReason_REPEATING_GROUP_FIELDS_OUT_OF_ORDER
	RejectIncorrectNumInGroup           = enum.SessionRejectReason_INCORRECT_NUMINGROUP_COUNT_FOR_REPEATING_GROUP
	RejectNonDataValueIncludesDelimiter = enum.SessionRejectReason_NON_DATA_VALUE_INCLUDES_FIELD_DELIMITER
	RejectOther                         = enum.SessionRejectReason_OTHER
)

func newError(sentinel *xerrors.Error, tag Tag, reason RejectReason, format string, args ...any) *xerrors.Error {
	e := sentinel.Derive(format, args...)
	if tag != 0 {
		e.WithContext(ctxTag, tag)
	}
	return e.WithContext(ctxReason, reason)
}

// withMsgType 为解码/编码过程中产生的错误补充 MsgType.
func withMsgType(err error, msgType string) error {
	if msgType == "" {
		return err
	}
	if e, ok := xerrors.FromError(err); ok {
		if _, set := e.Context[ctxMsgType]; !set {
			e.WithContext(ctxMsgType, msgType)
		}
	}
	return err
}

func typeMismatch(tag Tag, want FieldType, got FieldType, cause error) *xerrors.Error {
	e := newError(ErrTypeMismatch, tag, RejectIncorrectDataFormat, "tag %d: %s accessor on %s field", tag, want, got)
	if cause != nil {
		e.WithCause(cause)
	}
	return e
}

func fieldNotFound(tag Tag) *xerrors.Error {
	return newError(ErrFieldNotFound, tag, RejectRequiredTagMissing, "tag %d not set", tag)
}

func structural(tag Tag, reason RejectReason, format string, args ...any) *xerrors.Error {
	return newError(ErrStructural, tag, reason, format, args...)
}

// RejectInfo 汇总一个编解码错误中可用于会话层拒绝的信息.
type RejectInfo struct {
	Tag     Tag
	MsgType string
	Reason  RejectReason
	// Garbled 为 true 时 (CheckSum/BodyLength 错误) 按 FIX 规范应丢弃报文而不是发送 Reject.
	Garbled bool
	Err     *xerrors.Error
}

// Inspect 提取错误携带的 tag, MsgType 与拒绝原因. 非本包错误返回 false.
func Inspect(err error) (RejectInfo, bool) {
	e, ok := xerrors.FromError(err)
	if !ok || !isFixError(e) {
		return RejectInfo{}, false
	}
	info := RejectInfo{Reason: RejectOther, Err: e}
	if tag, ok := e.Context[ctxTag].(Tag); ok {
		info.Tag = tag
	}
	if mt, ok := e.Context[ctxMsgType].(string); ok {
		info.MsgType = mt
	}
	if r, ok := e.Context[ctxReason].(RejectReason); ok {
		info.Reason = r
	}
	info.Garbled = errors.Is(e, ErrChecksumMismatch) || errors.Is(e, ErrBodyLengthMismatch)
	return info, true
}

func isFixError(e *xerrors.Error) bool {
	for _, s := range []*xerrors.Error{
		ErrTypeMismatch, ErrFieldNotFound, ErrStructural,
		ErrChecksumMismatch, ErrBodyLengthMismatch, ErrUnknownMsgType,
	} {
		if e.Is(s) {
			return true
		}
	}
	return false
}

// reasonLabel 用作指标维度.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrBodyLengthMismatch):
		return "body_length"
	case errors.Is(err, ErrUnknownMsgType):
		return "unknown_msg_type"
	case errors.Is(err, ErrStructural):
		return "structural"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrFieldNotFound):
		return "not_found"
	default:
		return "other"
	}
}
