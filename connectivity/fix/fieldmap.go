package fix

import (
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/fixmsg/datetime"
)

// Slot 是 FieldMap 中一个 tag 对应的内容: 普通字段或重复组, 二者互斥.
type Slot struct {
	Field Field
	Group *Group
}

// IsGroup 报告该槽位是否为重复组.
func (s Slot) IsGroup() bool {
	return s.Group != nil
}

// FieldMap 是按 tag 索引的有序容器, 构成消息的头/体/尾或一个重复组条目.
// 零值可直接使用. 非并发安全.
type FieldMap struct {
	slots map[Tag]Slot
	order []Tag // 首次插入顺序
}

func NewFieldMap() *FieldMap {
	return &FieldMap{slots: make(map[Tag]Slot)}
}

func (m *FieldMap) put(tag Tag, s Slot) {
	if m.slots == nil {
		m.slots = make(map[Tag]Slot)
	}
	if _, ok := m.slots[tag]; !ok {
		m.order = append(m.order, tag)
	}
	m.slots[tag] = s
}

// Set 插入或替换 f.Tag() 上的内容. 替换保持原有的插入位置.
func (m *FieldMap) Set(f Field) {
	m.put(f.tag, Slot{Field: f})
}

func (m *FieldMap) SetString(tag Tag, v string) {
	m.Set(NewStringField(tag, v))
}

func (m *FieldMap) SetInt(tag Tag, v int) {
	m.Set(NewIntField(tag, v))
}

func (m *FieldMap) SetDecimal(tag Tag, d decimal.Decimal, scale int32) {
	m.Set(NewDecimalField(tag, d, scale))
}

func (m *FieldMap) SetBool(tag Tag, v bool) {
	m.Set(NewBoolField(tag, v))
}

func (m *FieldMap) SetChar(tag Tag, c byte) {
	m.Set(NewCharField(tag, c))
}

func (m *FieldMap) SetTimestamp(tag Tag, t time.Time, p datetime.Precision) {
	m.Set(NewTimestampField(tag, t, p))
}

func (m *FieldMap) SetDate(tag Tag, t time.Time) {
	m.Set(NewDateField(tag, t))
}

func (m *FieldMap) SetTime(tag Tag, t time.Time, p datetime.Precision) {
	m.Set(NewTimeField(tag, t, p))
}

func (m *FieldMap) SetBytes(tag Tag, b []byte) {
	m.Set(NewDataField(tag, b))
}

// SetData 同时设置数据字段及其长度字段.
func (m *FieldMap) SetData(lenTag, dataTag Tag, b []byte) {
	m.SetInt(lenTag, len(b))
	m.SetBytes(dataTag, b)
}

// Lookup 是可选读取: 未设置时返回 false 而不是错误.
// 重复组计数字段以条目数的整数字段形式返回.
func (m *FieldMap) Lookup(tag Tag) (Field, bool) {
	s, ok := m.slots[tag]
	if !ok {
		return Field{}, false
	}
	if s.Group != nil {
		return NewIntField(tag, s.Group.Len()), true
	}
	return s.Field, true
}

// Get 是必需读取: 未设置时返回 ErrFieldNotFound.
func (m *FieldMap) Get(tag Tag) (Field, error) {
	f, ok := m.Lookup(tag)
	if !ok {
		return Field{}, fieldNotFound(tag)
	}
	return f, nil
}

func (m *FieldMap) GetString(tag Tag) (string, error) {
	f, err := m.Get(tag)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}

func (m *FieldMap) GetInt(tag Tag) (int, error) {
	f, err := m.Get(tag)
	if err != nil {
		return 0, err
	}
	return f.Int()
}

func (m *FieldMap) GetDecimal(tag Tag) (decimal.Decimal, error) {
	f, err := m.Get(tag)
	if err != nil {
		return decimal.Zero, err
	}
	return f.Decimal()
}

func (m *FieldMap) GetBool(tag Tag) (bool, error) {
	f, err := m.Get(tag)
	if err != nil {
		return false, err
	}
	return f.Bool()
}

func (m *FieldMap) GetChar(tag Tag) (byte, error) {
	f, err := m.Get(tag)
	if err != nil {
		return 0, err
	}
	return f.Char()
}

func (m *FieldMap) GetTime(tag Tag) (time.Time, error) {
	f, err := m.Get(tag)
	if err != nil {
		return time.Time{}, err
	}
	return f.Time()
}

func (m *FieldMap) GetBytes(tag Tag) ([]byte, error) {
	f, err := m.Get(tag)
	if err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}

// GetValue 以泛型方式读取必需字段.
func GetValue[T Scalar](m *FieldMap, tag Tag) (T, error) {
	f, err := m.Get(tag)
	if err != nil {
		var zero T
		return zero, err
	}
	return ValueOf[T](f)
}

// Has 对应 isSetField.
func (m *FieldMap) Has(tag Tag) bool {
	_, ok := m.slots[tag]
	return ok
}

func (m *FieldMap) Remove(tag Tag) {
	if _, ok := m.slots[tag]; !ok {
		return
	}
	delete(m.slots, tag)
	for i, t := range m.order {
		if t == tag {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *FieldMap) Len() int {
	return len(m.slots)
}

// Tags 按插入顺序返回所有 tag.
func (m *FieldMap) Tags() []Tag {
	return append([]Tag(nil), m.order...)
}

// SetGroup 以 g 的计数字段为 key 挂载重复组, 替换该 tag 上已有的内容. FieldMap 取得 g 的所有权.
func (m *FieldMap) SetGroup(g *Group) {
	m.put(g.Tag(), Slot{Group: g})
}

// AddGroup 向计数字段 def.CountTag 上的重复组追加一个条目, 不存在时新建.
func (m *FieldMap) AddGroup(def *GroupDef, entry *FieldMap) {
	if s, ok := m.slots[def.CountTag]; ok && s.Group != nil {
		s.Group.Append(entry)
		return
	}
	g := NewGroup(def)
	g.Append(entry)
	m.SetGroup(g)
}

// Group 返回计数字段 tag 上的重复组.
func (m *FieldMap) Group(tag Tag) (*Group, error) {
	s, ok := m.slots[tag]
	if !ok {
		return nil, fieldNotFound(tag)
	}
	if s.Group == nil {
		return nil, newError(ErrTypeMismatch, tag, RejectIncorrectDataFormat, "tag %d holds a plain field, not a group", tag)
	}
	return s.Group, nil
}

// GroupCount 返回重复组条目数, 未设置时为 0.
func (m *FieldMap) GroupCount(tag Tag) int {
	if s, ok := m.slots[tag]; ok && s.Group != nil {
		return s.Group.Len()
	}
	return 0
}

// GetGroup 返回重复组的第 index 个条目.
func (m *FieldMap) GetGroup(tag Tag, index int) (*FieldMap, error) {
	g, err := m.Group(tag)
	if err != nil {
		return nil, err
	}
	return g.Get(index)
}

// InOrder 先按 order 给出的顺序, 再按插入顺序产出其余字段. 不修改 FieldMap, 可重复迭代.
func (m *FieldMap) InOrder(order []Tag) iter.Seq2[Tag, Slot] {
	return func(yield func(Tag, Slot) bool) {
		emitted := make(map[Tag]struct{}, len(order))
		for _, tag := range order {
			s, ok := m.slots[tag]
			if !ok {
				continue
			}
			if _, dup := emitted[tag]; dup {
				continue
			}
			emitted[tag] = struct{}{}
			if !yield(tag, s) {
				return
			}
		}
		for _, tag := range m.order {
			if _, ok := emitted[tag]; ok {
				continue
			}
			if !yield(tag, m.slots[tag]) {
				return
			}
		}
	}
}

// Clone 深拷贝, 包括所有嵌套重复组.
func (m *FieldMap) Clone() *FieldMap {
	c := &FieldMap{
		slots: make(map[Tag]Slot, len(m.slots)),
		order: append([]Tag(nil), m.order...),
	}
	for tag, s := range m.slots {
		if s.Group != nil {
			s = Slot{Group: s.Group.Clone()}
		}
		c.slots[tag] = s
	}
	return c
}

// Equal 逐字段比较线上文本与重复组条目 (顺序敏感), 不比较插入顺序与声明类型.
// 值为 "0" 的计数字段与空重复组视为相等.
func (m *FieldMap) Equal(o *FieldMap) bool {
	return m.equal(o, nil)
}

func (m *FieldMap) equal(o *FieldMap, skip func(Tag) bool) bool {
	count := func(fm *FieldMap) int {
		n := 0
		for tag := range fm.slots {
			if skip == nil || !skip(tag) {
				n++
			}
		}
		return n
	}
	if count(m) != count(o) {
		return false
	}
	for tag, a := range m.slots {
		if skip != nil && skip(tag) {
			continue
		}
		b, ok := o.slots[tag]
		if !ok {
			return false
		}
		if (a.Group == nil) != (b.Group == nil) {
			// 计数字段 "0" 与空重复组在线上完全相同
			if !zeroCount(a) || !zeroCount(b) {
				return false
			}
			continue
		}
		if a.Group == nil {
			if a.Field.raw != b.Field.raw {
				return false
			}
			continue
		}
		if a.Group.Len() != b.Group.Len() {
			return false
		}
		for i := range a.Group.entries {
			if !a.Group.entries[i].Equal(b.Group.entries[i]) {
				return false
			}
		}
	}
	return true
}

func zeroCount(s Slot) bool {
	if s.Group != nil {
		return s.Group.Len() == 0
	}
	return s.Field.raw == "0"
}

// String 以 "tag=value|" 形式按插入顺序输出, 仅用于调试.
func (m *FieldMap) String() string {
	var b strings.Builder
	m.dump(&b)
	return b.String()
}

func (m *FieldMap) dump(b *strings.Builder) {
	for _, tag := range m.order {
		s := m.slots[tag]
		b.WriteString(tag.String())
		b.WriteByte('=')
		if s.Group == nil {
			b.WriteString(s.Field.raw)
			b.WriteByte('|')
			continue
		}
		b.WriteString(strconv.Itoa(s.Group.Len()))
		b.WriteByte('|')
		for _, e := range s.Group.entries {
			e.dump(b)
		}
	}
}
