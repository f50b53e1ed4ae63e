package dictionary

import (
	"github.com/wyfcoding/fixmsg/connectivity/fix"
)

// Builder 以链式调用构造 Dictionary, 错误延迟到 Build 时返回.
type Builder struct {
	beginString string
	fields      []FieldDef
	lengths     [][2]fix.Tag
	header      *fix.Layout
	trailer     *fix.Layout
	messages    []*fix.MessageDef
}

func NewBuilder(beginString string) *Builder {
	return &Builder{beginString: beginString}
}

func (b *Builder) Field(tag fix.Tag, name string, typ fix.FieldType) *Builder {
	b.fields = append(b.fields, FieldDef{Tag: tag, Name: name, Type: typ})
	return b
}

// DataLength 声明 dataTag 的长度字段. 未声明长度字段的数据字段按普通文本读取, 不能包含 SOH.
func (b *Builder) DataLength(dataTag, lengthTag fix.Tag) *Builder {
	b.lengths = append(b.lengths, [2]fix.Tag{dataTag, lengthTag})
	return b
}

func (b *Builder) Header(order []fix.Tag, groups ...*fix.GroupDef) *Builder {
	b.header = fix.NewLayout("Header", order, groups...)
	return b
}

func (b *Builder) Trailer(order []fix.Tag, groups ...*fix.GroupDef) *Builder {
	b.trailer = fix.NewLayout("Trailer", order, groups...)
	return b
}

func (b *Builder) Message(msgType, name string, order []fix.Tag, groups ...*fix.GroupDef) *Builder {
	b.messages = append(b.messages, &fix.MessageDef{
		MsgType: msgType,
		Name:    name,
		Layout:  fix.NewLayout(name, order, groups...),
	})
	return b
}

// Build 校验并生成字典:
// 标准头须以 8, 9, 35 开头, 标准尾须以 10 结尾; 布局引用的字段必须已定义;
// 重复组计数字段必须是整数类型.
func (b *Builder) Build() (*Dictionary, error) {
	if b.beginString == "" {
		return nil, ErrInvalidDictionary.Derive("begin string is empty")
	}
	d := &Dictionary{
		beginString: b.beginString,
		header:      b.header,
		trailer:     b.trailer,
		messages:    make(map[string]*fix.MessageDef, len(b.messages)),
		fields:      make(map[fix.Tag]FieldDef, len(b.fields)),
		byName:      make(map[string]fix.Tag, len(b.fields)),
		lengths:     make(map[fix.Tag]fix.Tag, len(b.lengths)),
	}
	for _, f := range b.fields {
		if f.Tag <= 0 || f.Name == "" {
			return nil, ErrInvalidDictionary.Derive("field %d has no name or invalid tag", f.Tag)
		}
		if _, dup := d.fields[f.Tag]; dup {
			return nil, ErrInvalidDictionary.Derive("field %d defined twice", f.Tag)
		}
		if _, dup := d.byName[f.Name]; dup {
			return nil, ErrInvalidDictionary.Derive("field name %s defined twice", f.Name)
		}
		d.fields[f.Tag] = f
		d.byName[f.Name] = f.Tag
	}
	if err := d.pairLengths(b.lengths); err != nil {
		return nil, err
	}

	if d.header == nil || len(d.header.Order) < 3 ||
		d.header.Order[0] != fix.TagBeginString ||
		d.header.Order[1] != fix.TagBodyLength ||
		d.header.Order[2] != fix.TagMsgType {
		return nil, ErrInvalidDictionary.Derive("header must start with tags 8, 9, 35")
	}
	if d.trailer == nil || len(d.trailer.Order) == 0 || d.trailer.Order[len(d.trailer.Order)-1] != fix.TagCheckSum {
		return nil, ErrInvalidDictionary.Derive("trailer must end with tag 10")
	}
	if err := d.checkLayout(d.header); err != nil {
		return nil, err
	}
	if err := d.checkLayout(d.trailer); err != nil {
		return nil, err
	}
	for _, m := range b.messages {
		if m.MsgType == "" {
			return nil, ErrInvalidDictionary.Derive("message %s has no msg type", m.Name)
		}
		if _, dup := d.messages[m.MsgType]; dup {
			return nil, ErrInvalidDictionary.Derive("msg type %q defined twice", m.MsgType)
		}
		if err := d.checkLayout(m.Layout); err != nil {
			return nil, err
		}
		d.messages[m.MsgType] = m
	}
	return d, nil
}

// pairLengths 校验数据字段与长度字段的配对: 数据字段为 DATA 类型, 长度字段为整数类型, 长度字段只能配对一次.
func (d *Dictionary) pairLengths(pairs [][2]fix.Tag) error {
	used := make(map[fix.Tag]fix.Tag, len(pairs))
	for _, p := range pairs {
		data, length := p[0], p[1]
		if d.FieldType(data) != fix.TypeData {
			return ErrInvalidDictionary.Derive("field %d has a length field but is not DATA", data)
		}
		if d.FieldType(length) != fix.TypeInt {
			return ErrInvalidDictionary.Derive("length field %d of %d is not an integer", length, data)
		}
		if _, dup := d.lengths[data]; dup {
			return ErrInvalidDictionary.Derive("data field %d has two length fields", data)
		}
		if other, dup := used[length]; dup {
			return ErrInvalidDictionary.Derive("length field %d used by %d and %d", length, other, data)
		}
		used[length] = data
		d.lengths[data] = length
	}
	return nil
}

func (d *Dictionary) checkLayout(l *fix.Layout) error {
	for _, tag := range l.Order {
		if _, ok := d.fields[tag]; !ok {
			return ErrInvalidDictionary.Derive("%s references undefined field %d", l.Name, tag)
		}
	}
	for tag, g := range l.Groups {
		if d.FieldType(tag) != fix.TypeInt {
			return ErrInvalidDictionary.Derive("%s: group count field %d is not an integer", l.Name, tag)
		}
		if err := d.checkLayout(g.Layout); err != nil {
			return err
		}
	}
	return nil
}

// MustBuild 用于内置字典, 构建失败直接 panic.
func (b *Builder) MustBuild() *Dictionary {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
