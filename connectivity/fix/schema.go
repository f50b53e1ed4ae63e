package fix

// Layout 描述一个字段段落 (标准头, 消息体, 标准尾或重复组条目) 的字段顺序与重复组定义.
// 构造后不可变, 可在所有消息实例之间共享.
type Layout struct {
	Name   string
	Order  []Tag
	Groups map[Tag]*GroupDef

	index map[Tag]int
	deep  map[Tag]struct{} // 嵌套重复组 (任意深度) 声明的字段
}

// NewLayout 构造 Layout. 重复组的计数字段未出现在 order 中时追加到末尾.
func NewLayout(name string, order []Tag, groups ...*GroupDef) *Layout {
	l := &Layout{
		Name:   name,
		Groups: make(map[Tag]*GroupDef, len(groups)),
		index:  make(map[Tag]int, len(order)+len(groups)),
		deep:   make(map[Tag]struct{}),
	}
	add := func(tag Tag) {
		if _, ok := l.index[tag]; ok {
			return
		}
		l.index[tag] = len(l.Order)
		l.Order = append(l.Order, tag)
	}
	for _, tag := range order {
		add(tag)
	}
	for _, g := range groups {
		l.Groups[g.CountTag] = g
		add(g.CountTag)
		for _, tag := range g.Layout.Order {
			l.deep[tag] = struct{}{}
		}
		for tag := range g.Layout.deep {
			l.deep[tag] = struct{}{}
		}
	}
	return l
}

// Has 报告该段落是否直接声明了 tag (含重复组计数字段).
func (l *Layout) Has(tag Tag) bool {
	if l == nil {
		return false
	}
	_, ok := l.index[tag]
	return ok
}

// Group 返回以 tag 为计数字段的重复组定义.
func (l *Layout) Group(tag Tag) (*GroupDef, bool) {
	if l == nil {
		return nil, false
	}
	g, ok := l.Groups[tag]
	return g, ok
}

// order 对 nil 安全.
func (l *Layout) order() []Tag {
	if l == nil {
		return nil
	}
	return l.Order
}

// nested 报告 tag 是否只可能出现在某个嵌套重复组中.
func (l *Layout) nested(tag Tag) bool {
	if l == nil || l.Has(tag) {
		return false
	}
	_, ok := l.deep[tag]
	return ok
}

// GroupDef 重复组定义: 计数字段 + 条目布局, 布局的第一个字段为分隔字段.
type GroupDef struct {
	CountTag Tag
	Layout   *Layout
}

// NewGroupDef 构造重复组定义. fields 不能为空, 其首元素即分隔字段.
func NewGroupDef(countTag Tag, name string, fields []Tag, nested ...*GroupDef) *GroupDef {
	if len(fields) == 0 {
		panic("fix: group " + countTag.String() + " declares no fields")
	}
	return &GroupDef{
		CountTag: countTag,
		Layout:   NewLayout(name, fields, nested...),
	}
}

// Delimiter 返回分隔字段, 它的重复出现标志着一个新条目.
func (d *GroupDef) Delimiter() Tag {
	return d.Layout.Order[0]
}

// MessageDef 描述某个 MsgType 的消息体.
type MessageDef struct {
	MsgType string
	Name    string
	Layout  *Layout
}

// Dictionary 是编解码器依赖的数据字典: 按 MsgType 查找消息体布局, 并提供字段类型.
type Dictionary interface {
	BeginString() string
	Header() *Layout
	Trailer() *Layout
	Message(msgType string) (*MessageDef, bool)
	FieldType(tag Tag) FieldType
	// DataLength 返回数据字段对应的长度字段. 线上长度字段必须紧邻数据字段之前.
	DataLength(dataTag Tag) (Tag, bool)
}
