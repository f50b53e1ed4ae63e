package fix

import (
	"strings"
	"time"

	"github.com/wyfcoding/fixmsg/datetime"
)

// Message 由标准头, 消息体与标准尾三个 FieldMap 组成.
// MsgType 在构造时固定, 不保存在 Header 中; BodyLength 与 CheckSum 始终在编码时重新计算.
type Message struct {
	Header  *FieldMap
	Body    *FieldMap
	Trailer *FieldMap

	msgType string
}

// NewMessage 创建 MsgType 为 msgType 的空消息.
func NewMessage(msgType string) *Message {
	return &Message{
		Header:  NewFieldMap(),
		Body:    NewFieldMap(),
		Trailer: NewFieldMap(),
		msgType: msgType,
	}
}

func (m *Message) MsgType() string {
	return m.msgType
}

// BeginString 返回头部的 BeginString, 未设置时为空.
func (m *Message) BeginString() string {
	if f, ok := m.Header.Lookup(TagBeginString); ok {
		return f.String()
	}
	return ""
}

// SetSendingTime 是设置头部 SendingTime(52) 的便捷方法.
func (m *Message) SetSendingTime(t time.Time, p datetime.Precision) {
	m.Header.SetTimestamp(TagSendingTime, t, p)
}

// Clone 深拷贝整条消息, 拷贝可以交给其他 goroutine 独立使用.
func (m *Message) Clone() *Message {
	return &Message{
		Header:  m.Header.Clone(),
		Body:    m.Body.Clone(),
		Trailer: m.Trailer.Clone(),
		msgType: m.msgType,
	}
}

func isDerived(tag Tag) bool {
	return tag == TagBodyLength || tag == TagCheckSum
}

// Equal 逐字段比较两条消息, 忽略派生字段 BodyLength 与 CheckSum.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.msgType == o.msgType &&
		m.Header.equal(o.Header, isDerived) &&
		m.Body.equal(o.Body, isDerived) &&
		m.Trailer.equal(o.Trailer, isDerived)
}

// String 以 "|" 代替 SOH 输出各段内容, 仅用于日志与调试.
func (m *Message) String() string {
	var b strings.Builder
	b.WriteString("35=" + m.msgType + "|")
	m.Header.dump(&b)
	m.Body.dump(&b)
	m.Trailer.dump(&b)
	return b.String()
}

// ToWire 使用默认选项的 Codec 编码.
func (m *Message) ToWire(dict Dictionary) ([]byte, error) {
	return NewCodec(dict).Encode(m)
}

// FromWire 使用默认选项的 Codec 解码.
func FromWire(data []byte, dict Dictionary) (*Message, error) {
	return NewCodec(dict).Decode(data)
}
