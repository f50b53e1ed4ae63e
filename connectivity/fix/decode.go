package fix

import (
	"strconv"
	"time"
)

// Decode 解析一条完整报文. 失败时不返回任何部分填充的 Message.
func (c *Codec) Decode(data []byte) (*Message, error) {
	start := time.Now()
	m, err := c.decode(data)
	if err != nil {
		if c.metrics != nil {
			c.metrics.DecodeErrors.WithLabelValues(reasonLabel(err)).Inc()
		}
		c.logger.Debug("fix frame rejected", "error", err, "size", len(data))
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.MessagesDecoded.WithLabelValues(m.msgType).Inc()
		c.metrics.MessageSize.WithLabelValues("in").Observe(float64(len(data)))
		c.metrics.CodecDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	}
	return m, nil
}

func (c *Codec) decode(data []byte) (*Message, error) {
	toks, err := tokenize(data, c.dict)
	if err != nil {
		return nil, err
	}
	if len(toks) < 4 {
		return nil, structural(0, RejectRequiredTagMissing, "message has %d fields, want at least 4", len(toks))
	}
	for i, want := range []Tag{TagBeginString, TagBodyLength, TagMsgType} {
		if toks[i].tag != want {
			return nil, structural(want, RejectTagOutOfOrder, "field %d must be tag %d, got %d", i+1, want, toks[i].tag)
		}
	}
	last := toks[len(toks)-1]
	if last.tag != TagCheckSum {
		return nil, structural(TagCheckSum, RejectRequiredTagMissing, "last field must be CheckSum, got %d", last.tag)
	}

	if c.validateBodyLength {
		declared, err := strconv.Atoi(toks[1].value)
		actual := last.start - toks[1].end
		if err != nil || declared != actual {
			return nil, newError(ErrBodyLengthMismatch, TagBodyLength, RejectValueIncorrect,
				"declared %q, actual %d", toks[1].value, actual)
		}
	}
	if c.validateChecksum {
		want := Checksum(data[:last.start])
		got, err := strconv.Atoi(last.value)
		if err != nil || len(last.value) != 3 || got != want {
			return nil, newError(ErrChecksumMismatch, TagCheckSum, RejectValueIncorrect,
				"declared %q, computed %s", last.value, FormatChecksum(want))
		}
	}

	msgType := toks[2].value
	var bodyLayout *Layout
	if def, ok := c.dict.Message(msgType); ok {
		bodyLayout = def.Layout
	} else if !c.allowUnknown {
		return nil, newError(ErrUnknownMsgType, TagMsgType, RejectInvalidMsgType, "msg type %q", msgType).
			WithContext(ctxMsgType, msgType)
	}

	m := NewMessage(msgType)
	m.Header.Set(NewRawField(TagBeginString, TypeString, toks[0].value))
	m.Header.Set(NewRawField(TagBodyLength, TypeInt, toks[1].value))

	d := &decoder{dict: c.dict, toks: toks[:len(toks)-1], pos: 3}
	header, trailer := c.dict.Header(), c.dict.Trailer()

	err = d.readSection(m.Header, header, func(t Tag) (bool, error) {
		if t == TagMsgType {
			return false, structural(t, RejectTagAppearsMoreThanOnce, "tag %d appears more than once", t)
		}
		return header.Has(t) || header.nested(t), nil
	})
	if err == nil {
		err = d.readSection(m.Body, bodyLayout, func(t Tag) (bool, error) {
			if trailer.Has(t) && t != TagCheckSum {
				return false, nil
			}
			if header.Has(t) || header.nested(t) {
				return false, structural(t, RejectTagOutOfOrder, "header tag %d inside body", t)
			}
			return true, nil
		})
	}
	if err == nil {
		err = d.readSection(m.Trailer, trailer, func(t Tag) (bool, error) {
			if trailer.Has(t) || trailer.nested(t) {
				return true, nil
			}
			return false, structural(t, RejectTagOutOfOrder, "tag %d after the standard trailer started", t)
		})
	}
	if err != nil {
		return nil, withMsgType(err, msgType)
	}
	m.Trailer.Set(NewRawField(TagCheckSum, TypeString, last.value))
	return m, nil
}

// decoder 顺序消费 token. 重复组按递归下降读取, 最内层打开的重复组优先认领 tag.
type decoder struct {
	dict Dictionary
	toks []token
	pos  int
}

func (d *decoder) peek() (token, bool) {
	if d.pos >= len(d.toks) {
		return token{}, false
	}
	return d.toks[d.pos], true
}

func (d *decoder) field(t token) Field {
	return NewRawField(t.tag, d.dict.FieldType(t.tag), t.value)
}

// readSection 读取一个段落直到 accept 返回 false.
func (d *decoder) readSection(fm *FieldMap, layout *Layout, accept func(Tag) (bool, error)) error {
	for {
		t, ok := d.peek()
		if !ok {
			return nil
		}
		if t.tag == TagCheckSum {
			return structural(t.tag, RejectTagOutOfOrder, "CheckSum must be the last field")
		}
		in, err := accept(t.tag)
		if err != nil {
			return err
		}
		if !in {
			return nil
		}
		if fm.Has(t.tag) {
			return structural(t.tag, RejectTagAppearsMoreThanOnce, "tag %d appears more than once", t.tag)
		}
		d.pos++
		if def, isGroup := layout.Group(t.tag); isGroup {
			if err := d.readGroup(fm, def, t); err != nil {
				return err
			}
			continue
		}
		if layout.nested(t.tag) {
			return structural(t.tag, RejectGroupFieldsOutOfOrder, "tag %d outside of its repeating group", t.tag)
		}
		fm.Set(d.field(t))
	}
}

// readGroup 读取计数字段 countTok 之后的全部条目. 条目以分隔字段开始;
// 当前条目认领布局中声明且尚未出现的 tag, 其余交还给外层.
func (d *decoder) readGroup(fm *FieldMap, def *GroupDef, countTok token) error {
	count, err := strconv.Atoi(countTok.value)
	if err != nil || count < 0 {
		return structural(def.CountTag, RejectIncorrectDataFormat,
			"group count %d has invalid value %q", def.CountTag, countTok.value)
	}

	g := NewGroup(def)
	delim := def.Delimiter()
	layout := def.Layout

	if count > 0 {
		if t, ok := d.peek(); ok && t.tag != delim && layout.Has(t.tag) {
			return structural(t.tag, RejectGroupFieldsOutOfOrder,
				"group %d entry must start with tag %d, got %d", def.CountTag, delim, t.tag)
		}
	}

	var entry *FieldMap
	for count > 0 {
		t, ok := d.peek()
		if !ok {
			break
		}
		switch {
		case t.tag == delim:
			entry = g.Add()
		case entry != nil && layout.Has(t.tag) && !entry.Has(t.tag):
		default:
			entry = nil
		}
		if entry == nil {
			break
		}
		d.pos++
		if nestedDef, isGroup := layout.Group(t.tag); isGroup {
			if err := d.readGroup(entry, nestedDef, t); err != nil {
				return err
			}
			continue
		}
		entry.Set(d.field(t))
	}

	if g.Len() != count {
		return structural(def.CountTag, RejectIncorrectNumInGroup,
			"group %d declares %d entries, parsed %d", def.CountTag, count, g.Len())
	}
	fm.SetGroup(g)
	return nil
}
