package fix

// Group 是共享同一 GroupDef 的有序条目序列. 每个条目由所属的父 FieldMap 独占.
type Group struct {
	def     *GroupDef
	entries []*FieldMap
}

func NewGroup(def *GroupDef) *Group {
	return &Group{def: def}
}

func (g *Group) Def() *GroupDef {
	return g.def
}

// Tag 返回计数字段, 例如 NoOrders(73).
func (g *Group) Tag() Tag {
	return g.def.CountTag
}

// Add 追加并返回一个空条目.
func (g *Group) Add() *FieldMap {
	e := NewFieldMap()
	g.entries = append(g.entries, e)
	return e
}

// Append 追加条目, Group 取得 entry 的所有权.
func (g *Group) Append(entry *FieldMap) {
	g.entries = append(g.entries, entry)
}

func (g *Group) Len() int {
	return len(g.entries)
}

func (g *Group) Get(index int) (*FieldMap, error) {
	if index < 0 || index >= len(g.entries) {
		return nil, newError(ErrFieldNotFound, g.def.CountTag, RejectRequiredTagMissing,
			"group %d has no entry %d (len %d)", g.def.CountTag, index, len(g.entries))
	}
	return g.entries[index], nil
}

// Entries 返回条目切片的副本, 条目本身不复制.
func (g *Group) Entries() []*FieldMap {
	return append([]*FieldMap(nil), g.entries...)
}

// Clone 深拷贝所有条目及其嵌套重复组, 用于把同一逻辑分组挂到两个独立的消息上.
func (g *Group) Clone() *Group {
	c := &Group{def: g.def, entries: make([]*FieldMap, len(g.entries))}
	for i, e := range g.entries {
		c.entries[i] = e.Clone()
	}
	return c
}
