package fix

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wyfcoding/fixmsg/config"
	"github.com/wyfcoding/fixmsg/datetime"
	"github.com/wyfcoding/fixmsg/logging"
	"github.com/wyfcoding/fixmsg/metrics"
)

// Codec 在 Message 与 tag=value<SOH> 线上格式之间转换.
// 构造后只读, 可被多个 goroutine 共享; 单条 Message 仍不可并发修改.
type Codec struct {
	dict               Dictionary
	beginString        string
	validateChecksum   bool
	validateBodyLength bool
	allowUnknown       bool
	precision          datetime.Precision
	concurrency        int
	logger             *slog.Logger
	metrics            *metrics.Metrics
}

// Option 定义配置选项.
type Option func(*Codec)

// WithLogger 设置拒绝报文时使用的日志记录器.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = l
	}
}

// WithMetrics 注入指标采集器.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Codec) {
		c.metrics = m
	}
}

// WithValidation 控制解码时是否校验 CheckSum 与 BodyLength.
func WithValidation(checksum, bodyLength bool) Option {
	return func(c *Codec) {
		c.validateChecksum = checksum
		c.validateBodyLength = bodyLength
	}
}

// WithUnknownMsgTypes 允许解码字典外的 MsgType, 其消息体按平铺字段读取.
func WithUnknownMsgTypes(allow bool) Option {
	return func(c *Codec) {
		c.allowUnknown = allow
	}
}

// WithBeginString 覆盖消息未设置 BeginString 时使用的默认值.
func WithBeginString(s string) Option {
	return func(c *Codec) {
		c.beginString = s
	}
}

// WithTimestampPrecision 设置 Stamp 使用的时间精度.
func WithTimestampPrecision(p datetime.Precision) Option {
	return func(c *Codec) {
		c.precision = p
	}
}

// WithConcurrency 设置 DecodeAll 的并发上限, 0 表示不限.
func WithConcurrency(n int) Option {
	return func(c *Codec) {
		c.concurrency = n
	}
}

// NewCodec 创建编解码器.
func NewCodec(dict Dictionary, opts ...Option) *Codec {
	c := &Codec{
		dict:               dict,
		beginString:        dict.BeginString(),
		validateChecksum:   true,
		validateBodyLength: true,
		precision:          datetime.Millis,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Default().Component("fix.codec")
	}
	return c
}

// NewCodecFromConfig 按配置文件中的 codec 段创建编解码器, opts 在配置之后生效.
func NewCodecFromConfig(dict Dictionary, cfg config.CodecConfig, opts ...Option) (*Codec, error) {
	p, err := datetime.ParsePrecision(cfg.TimestampPrecision)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithValidation(cfg.ValidateChecksum, cfg.ValidateBodyLength),
		WithUnknownMsgTypes(cfg.AllowUnknownMsgType),
		WithTimestampPrecision(p),
		WithConcurrency(cfg.DecodeConcurrency),
	}
	if cfg.BeginString != "" {
		base = append(base, WithBeginString(cfg.BeginString))
	}
	return NewCodec(dict, append(base, opts...)...), nil
}

// Dictionary 返回编解码器使用的数据字典.
func (c *Codec) Dictionary() Dictionary {
	return c.dict
}

// Stamp 以编解码器的时间精度设置 SendingTime.
func (c *Codec) Stamp(m *Message, now time.Time) {
	m.SetSendingTime(now, c.precision)
}

// Encode 序列化消息: 8, 9, 35, 其余头部字段, 消息体, 标准尾 (CheckSum 除外), 最后是 10.
// 调用方设置的 BodyLength 与 CheckSum 会被忽略并重新计算.
func (c *Codec) Encode(m *Message) ([]byte, error) {
	start := time.Now()
	out, err := c.encode(m)
	if err != nil {
		return nil, withMsgType(err, m.msgType)
	}
	if c.metrics != nil {
		c.metrics.MessagesEncoded.WithLabelValues(m.msgType).Inc()
		c.metrics.MessageSize.WithLabelValues("out").Observe(float64(len(out)))
		c.metrics.CodecDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	}
	return out, nil
}

func (c *Codec) encode(m *Message) ([]byte, error) {
	begin := m.BeginString()
	if begin == "" {
		begin = c.beginString
	}
	if begin == "" {
		return nil, fieldNotFound(TagBeginString)
	}
	if m.msgType == "" {
		return nil, fieldNotFound(TagMsgType)
	}
	if m.Header.Has(TagMsgType) {
		return nil, structural(TagMsgType, RejectTagAppearsMoreThanOnce,
			"MsgType is fixed by NewMessage and must not be set in the header")
	}

	body := make([]byte, 0, 256)
	body = appendField(body, TagMsgType, m.msgType)

	var err error
	skipHeader := func(t Tag) bool {
		return t == TagBeginString || t == TagBodyLength || t == TagMsgType
	}
	if body, err = c.appendMap(body, m.Header, c.dict.Header(), skipHeader, false); err != nil {
		return nil, err
	}

	var bodyLayout *Layout
	if def, ok := c.dict.Message(m.msgType); ok {
		bodyLayout = def.Layout
	}
	if body, err = c.appendMap(body, m.Body, bodyLayout, nil, false); err != nil {
		return nil, err
	}

	skipTrailer := func(t Tag) bool { return t == TagCheckSum }
	if body, err = c.appendMap(body, m.Trailer, c.dict.Trailer(), skipTrailer, false); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+32)
	out = appendField(out, TagBeginString, begin)
	out = appendField(out, TagBodyLength, strconv.Itoa(len(body)))
	out = append(out, body...)
	out = appendField(out, TagCheckSum, FormatChecksum(Checksum(out)))
	return out, nil
}

// appendMap 按布局顺序写出 fm. strict 为 true 时 (重复组条目) 不允许布局外的字段,
// 否则解码端无法把它们归入同一条目. 数据字段连同其长度字段一起写出, 长度字段紧邻其前.
func (c *Codec) appendMap(buf []byte, fm *FieldMap, layout *Layout, skip func(Tag) bool, strict bool) ([]byte, error) {
	lengths := c.dataLengths(fm)
	var err error
	for tag, slot := range fm.InOrder(layout.order()) {
		if skip != nil && skip(tag) {
			continue
		}
		if _, paired := lengths[tag]; paired {
			continue
		}
		if strict && !layout.Has(tag) {
			return nil, structural(tag, RejectTagNotDefinedForMsgType,
				"tag %d is not a member of group %s", tag, layout.Name)
		}
		if slot.Group != nil {
			if buf, err = c.appendGroup(buf, slot.Group); err != nil {
				return nil, err
			}
			continue
		}
		if _, isGroup := layout.Group(tag); isGroup && slot.Field.raw != "0" {
			return nil, structural(tag, RejectIncorrectNumInGroup,
				"count tag %d set to %q without group entries", tag, slot.Field.raw)
		}
		if slot.Field.raw == "" {
			return nil, structural(tag, RejectTagWithoutValue, "tag %d has no value", tag)
		}
		if lenTag, ok := c.dict.DataLength(tag); ok {
			if buf, err = appendData(buf, fm, lenTag, slot.Field); err != nil {
				return nil, err
			}
			continue
		}
		if strings.IndexByte(slot.Field.raw, SOH) >= 0 {
			return nil, structural(tag, RejectNonDataValueIncludesDelimiter,
				"tag %d value contains SOH", tag)
		}
		buf = appendField(buf, tag, slot.Field.raw)
	}
	return buf, nil
}

// dataLengths 返回 fm 中已有数据字段所配对的长度字段, 它们随数据字段一起写出.
func (c *Codec) dataLengths(fm *FieldMap) map[Tag]Tag {
	var out map[Tag]Tag
	for tag, slot := range fm.slots {
		if slot.Group != nil {
			continue
		}
		if lenTag, ok := c.dict.DataLength(tag); ok {
			if out == nil {
				out = make(map[Tag]Tag, 1)
			}
			out[lenTag] = tag
		}
	}
	return out
}

// appendData 写出 "长度字段, 数据字段". 长度字段必须已设置且等于数据的字节数.
func appendData(buf []byte, fm *FieldMap, lenTag Tag, data Field) ([]byte, error) {
	lf, ok := fm.Lookup(lenTag)
	if !ok {
		return nil, newError(ErrFieldNotFound, lenTag, RejectRequiredTagMissing,
			"data field %d requires length field %d", data.tag, lenTag)
	}
	if n, err := strconv.Atoi(lf.raw); err != nil || n != len(data.raw) {
		return nil, structural(lenTag, RejectValueIncorrect,
			"length field %d is %q, data field %d has %d bytes", lenTag, lf.raw, data.tag, len(data.raw))
	}
	buf = appendField(buf, lenTag, lf.raw)
	return appendField(buf, data.tag, data.raw), nil
}

func (c *Codec) appendGroup(buf []byte, g *Group) ([]byte, error) {
	buf = appendField(buf, g.Tag(), strconv.Itoa(g.Len()))
	delim := g.def.Delimiter()
	var err error
	for i, e := range g.entries {
		if !e.Has(delim) {
			return nil, newError(ErrFieldNotFound, delim, RejectRequiredTagMissing,
				"group %d entry %d lacks delimiter tag %d", g.Tag(), i, delim)
		}
		if buf, err = c.appendMap(buf, e, g.def.Layout, nil, true); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendField(buf []byte, tag Tag, value string) []byte {
	buf = strconv.AppendInt(buf, int64(tag), 10)
	buf = append(buf, '=')
	buf = append(buf, value...)
	return append(buf, SOH)
}
