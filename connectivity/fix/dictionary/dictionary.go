// Package dictionary 提供 FIX 数据字典: 字段定义, 标准头/尾与各 MsgType 的消息体布局.
// 字典构建后不可变, 可在所有编解码器与消息之间共享.
package dictionary

import (
	"slices"
	"strconv"

	"github.com/wyfcoding/fixmsg/connectivity/fix"
	"github.com/wyfcoding/fixmsg/xerrors"
)

// ErrInvalidDictionary 字典定义不完整或自相矛盾.
var ErrInvalidDictionary = xerrors.New(xerrors.ErrInvalidArg, 460101, "invalid fix dictionary", "", nil)

// FieldDef 字段定义.
type FieldDef struct {
	Tag  fix.Tag
	Name string
	Type fix.FieldType
}

// Dictionary 实现 fix.Dictionary.
type Dictionary struct {
	beginString string
	header      *fix.Layout
	trailer     *fix.Layout
	messages    map[string]*fix.MessageDef
	fields      map[fix.Tag]FieldDef
	byName      map[string]fix.Tag
	lengths     map[fix.Tag]fix.Tag // 数据字段 -> 长度字段
}

var _ fix.Dictionary = (*Dictionary)(nil)

func (d *Dictionary) BeginString() string {
	return d.beginString
}

func (d *Dictionary) Header() *fix.Layout {
	return d.header
}

func (d *Dictionary) Trailer() *fix.Layout {
	return d.trailer
}

func (d *Dictionary) Message(msgType string) (*fix.MessageDef, bool) {
	m, ok := d.messages[msgType]
	return m, ok
}

// FieldType 返回字段类型, 未定义的字段按 String 处理.
func (d *Dictionary) FieldType(tag fix.Tag) fix.FieldType {
	if f, ok := d.fields[tag]; ok {
		return f.Type
	}
	return fix.TypeString
}

func (d *Dictionary) DataLength(dataTag fix.Tag) (fix.Tag, bool) {
	t, ok := d.lengths[dataTag]
	return t, ok
}

func (d *Dictionary) Field(tag fix.Tag) (FieldDef, bool) {
	f, ok := d.fields[tag]
	return f, ok
}

// FieldName 返回字段名, 未定义时返回 tag 数字.
func (d *Dictionary) FieldName(tag fix.Tag) string {
	if f, ok := d.fields[tag]; ok {
		return f.Name
	}
	return strconv.Itoa(int(tag))
}

func (d *Dictionary) TagByName(name string) (fix.Tag, bool) {
	t, ok := d.byName[name]
	return t, ok
}

// MessageTypes 返回已定义的 MsgType, 按字典序排列.
func (d *Dictionary) MessageTypes() []string {
	out := make([]string, 0, len(d.messages))
	for mt := range d.messages {
		out = append(out, mt)
	}
	slices.Sort(out)
	return out
}
