package fix_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/fixmsg/config"
	"github.com/wyfcoding/fixmsg/connectivity/fix"
	"github.com/wyfcoding/fixmsg/connectivity/fix/dictionary"
	"github.com/wyfcoding/fixmsg/datetime"
	"github.com/wyfcoding/fixmsg/metrics"
)

var ts = time.Date(2024, 1, 2, 15, 4, 5, 123_000_000, time.UTC)

func newCodec(opts ...fix.Option) *fix.Codec {
	return fix.NewCodec(dictionary.FIX44(), opts...)
}

// frame 用正确的 BodyLength 与 CheckSum 包装消息体, "|" 代表 SOH.
func frame(body string) []byte {
	b := strings.ReplaceAll(body, "|", "\x01")
	msg := "8=FIX.4.4\x019=" + strconv.Itoa(len(b)) + "\x01" + b
	return []byte(msg + "10=" + fix.FormatChecksum(fix.Checksum([]byte(msg))) + "\x01")
}

func soh(s string) []byte {
	return []byte(strings.ReplaceAll(s, "|", "\x01"))
}

func pipes(b []byte) string {
	return strings.ReplaceAll(string(b), "\x01", "|")
}

func newHeader(msgType string) *fix.Message {
	m := fix.NewMessage(msgType)
	m.Header.SetString(fix.TagBeginString, "FIX.4.4")
	m.Header.SetString(fix.TagSenderCompID, "CLIENT")
	m.Header.SetString(fix.TagTargetCompID, "BROKER")
	m.Header.SetInt(fix.TagMsgSeqNum, 1)
	m.SetSendingTime(ts, datetime.Millis)
	return m
}

func groupDef(t *testing.T, msgType string, tag fix.Tag) *fix.GroupDef {
	t.Helper()
	def, ok := dictionary.FIX44().Message(msgType)
	require.True(t, ok)
	g, ok := def.Layout.Group(tag)
	require.True(t, ok)
	return g
}

// checkFraming 从报文字节重新计算 BodyLength 与 CheckSum 并与报文内的值比较.
func checkFraming(t *testing.T, wire []byte) {
	t.Helper()
	i := bytes.Index(wire, []byte("\x019="))
	require.GreaterOrEqual(t, i, 0)
	j := i + 1 + bytes.IndexByte(wire[i+1:], fix.SOH)
	declared, err := strconv.Atoi(string(wire[i+3 : j]))
	require.NoError(t, err)

	k := bytes.LastIndex(wire, []byte("\x0110=")) + 1
	assert.Equal(t, declared, k-(j+1), "body length")
	assert.Equal(t, fix.FormatChecksum(fix.Checksum(wire[:k])), string(wire[k+3:k+6]), "checksum")
	assert.Len(t, wire, k+7)
}

func TestEncodeExactBytes(t *testing.T) {
	m := fix.NewMessage(fix.MsgTypeHeartbeat)
	m.Body.SetString(fix.TagTestReqID, "T1")
	m.SetSendingTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), datetime.Millis)
	m.Header.SetInt(fix.TagMsgSeqNum, 1)
	m.Header.SetString(fix.TagTargetCompID, "B")
	m.Header.SetString(fix.TagSenderCompID, "A")

	wire, err := newCodec().Encode(m)
	require.NoError(t, err)
	assert.Equal(t, "8=FIX.4.4|9=52|35=0|49=A|56=B|34=1|52=20240102-03:04:05.000|112=T1|10=148|", pipes(wire))
}

func TestNewOrderSingleRoundTrip(t *testing.T) {
	m := newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(fix.TagClOrdID, "123")
	m.Body.SetChar(fix.TagHandlInst, '1')
	m.Body.SetString(fix.TagSymbol, "IBM")
	m.Body.SetChar(fix.TagSide, '1')
	m.Body.SetTimestamp(fix.TagTransactTime, ts, datetime.Millis)
	m.Body.SetChar(fix.TagOrdType, '2')
	m.Body.SetDecimal(fix.TagPrice, decimal.RequireFromString("10.50"), 2)

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	checkFraming(t, wire)

	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, m.Equal(back), "want %s\ngot  %s", m, back)
	assert.Equal(t, fix.MsgTypeNewOrderSingle, back.MsgType())
	assert.Equal(t, "FIX.4.4", back.BeginString())

	id, err := back.Body.GetString(fix.TagClOrdID)
	require.NoError(t, err)
	assert.Equal(t, "123", id)
	hi, err := back.Body.GetChar(fix.TagHandlInst)
	require.NoError(t, err)
	assert.Equal(t, byte('1'), hi)
	sym, _ := back.Body.GetString(fix.TagSymbol)
	assert.Equal(t, "IBM", sym)
	side, _ := back.Body.GetChar(fix.TagSide)
	assert.Equal(t, byte('1'), side)
	tt, err := back.Body.GetTime(fix.TagTransactTime)
	require.NoError(t, err)
	assert.True(t, tt.Equal(ts))
	ot, _ := back.Body.GetChar(fix.TagOrdType)
	assert.Equal(t, byte('2'), ot)
	px, err := back.Body.GetDecimal(fix.TagPrice)
	require.NoError(t, err)
	assert.True(t, px.Equal(decimal.RequireFromString("10.5")))

	bl, err := back.Header.GetInt(fix.TagBodyLength)
	require.NoError(t, err)
	assert.Positive(t, bl)
	assert.True(t, back.Trailer.Has(fix.TagCheckSum))

	// 解码得到的消息再次编码得到相同字节
	again, err := c.Encode(back)
	require.NoError(t, err)
	assert.Equal(t, wire, again)
}

func TestAllocationGroupRoundTrip(t *testing.T) {
	orders := groupDef(t, fix.MsgTypeAllocationInstruction, fix.TagNoOrders)

	m := newHeader(fix.MsgTypeAllocationInstruction)
	m.Body.SetString(fix.TagAllocID, "AL1")
	m.Body.SetChar(fix.TagAllocTransType, '0')
	for _, id := range []string{"A1", "A2"} {
		e := fix.NewFieldMap()
		e.SetString(fix.TagClOrdID, id)
		m.Body.AddGroup(orders, e)
	}

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	assert.Contains(t, pipes(wire), "|73=2|11=A1|11=A2|")

	back, err := c.Decode(wire)
	require.NoError(t, err)

	n, err := back.Body.GetInt(fix.TagNoOrders)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Equal(t, 2, back.Body.GroupCount(fix.TagNoOrders))
	for i, want := range []string{"A1", "A2"} {
		e, err := back.Body.GetGroup(fix.TagNoOrders, i)
		require.NoError(t, err)
		id, _ := e.GetString(fix.TagClOrdID)
		assert.Equal(t, want, id)
	}
	assert.True(t, m.Equal(back))
}

func TestNestedGroupsRoundTrip(t *testing.T) {
	allocs := groupDef(t, fix.MsgTypeAllocationInstruction, fix.TagNoAllocs)
	fees, ok := allocs.Layout.Group(fix.TagNoMiscFees)
	require.True(t, ok)

	m := newHeader(fix.MsgTypeAllocationInstruction)
	m.Body.SetString(fix.TagAllocID, "AL2")
	for i, acct := range []string{"ACC1", "ACC2"} {
		e := fix.NewFieldMap()
		// 故意乱序设置, 编码按组内布局输出
		e.SetDecimal(fix.TagAllocQty, decimal.NewFromInt(int64(100*(i+1))), 0)
		e.SetString(fix.TagAllocAccount, acct)
		for j := 0; j <= i; j++ {
			fe := fix.NewFieldMap()
			fe.SetString(fix.TagMiscFeeType, "1")
			fe.SetDecimal(fix.TagMiscFeeAmt, decimal.NewFromFloat(1.25), 2)
			e.AddGroup(fees, fe)
		}
		m.Body.AddGroup(allocs, e)
	}

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	assert.Contains(t, pipes(wire),
		"|78=2|79=ACC1|80=100|136=1|137=1.25|139=1|79=ACC2|80=200|136=2|137=1.25|139=1|137=1.25|139=1|")
	checkFraming(t, wire)

	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, m.Equal(back), "want %s\ngot  %s", m, back)

	second, err := back.Body.GetGroup(fix.TagNoAllocs, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.GroupCount(fix.TagNoMiscFees))
}

func TestMassQuoteRoundTrip(t *testing.T) {
	sets := groupDef(t, fix.MsgTypeMassQuote, fix.TagNoQuoteSets)
	entries, ok := sets.Layout.Group(fix.TagNoQuoteEntries)
	require.True(t, ok)

	m := newHeader(fix.MsgTypeMassQuote)
	m.Body.SetString(fix.TagQuoteID, "Q1")
	for s := range 2 {
		set := fix.NewFieldMap()
		set.SetString(fix.TagQuoteSetID, strconv.Itoa(s))
		set.SetInt(fix.TagTotNoQuoteEntries, 2)
		for e := range 2 {
			qe := fix.NewFieldMap()
			qe.SetString(fix.TagQuoteEntryID, strconv.Itoa(s*10+e))
			qe.SetString(fix.TagSymbol, "IBM")
			qe.Set(mustDecimal(t, fix.TagBidPx, "99.990"))
			qe.Set(mustDecimal(t, fix.TagOfferPx, "100.010"))
			set.AddGroup(entries, qe)
		}
		m.Body.AddGroup(sets, set)
	}

	wire, err := m.ToWire(dictionary.FIX44())
	require.NoError(t, err)
	back, err := fix.FromWire(wire, dictionary.FIX44())
	require.NoError(t, err)
	assert.True(t, m.Equal(back))

	set, err := back.Body.GetGroup(fix.TagNoQuoteSets, 1)
	require.NoError(t, err)
	qe, err := set.GetGroup(fix.TagNoQuoteEntries, 1)
	require.NoError(t, err)
	id, _ := qe.GetString(fix.TagQuoteEntryID)
	assert.Equal(t, "11", id)
	bid, _ := qe.GetString(fix.TagBidPx)
	assert.Equal(t, "99.990", bid)
}

func mustDecimal(t *testing.T, tag fix.Tag, text string) fix.Field {
	t.Helper()
	f, err := fix.ParseDecimalField(tag, text)
	require.NoError(t, err)
	return f
}

func TestHeaderGroupRoundTrip(t *testing.T) {
	hops, ok := dictionary.FIX44().Header().Group(fix.TagNoHops)
	require.True(t, ok)

	m := newHeader(fix.MsgTypeHeartbeat)
	e := fix.NewFieldMap()
	e.SetString(fix.TagHopCompID, "HUB")
	e.SetTimestamp(fix.TagHopSendingTime, ts, datetime.Millis)
	m.Header.AddGroup(hops, e)

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
	assert.Equal(t, 1, back.Header.GroupCount(fix.TagNoHops))
}

func TestEncodeOrdering(t *testing.T) {
	m := newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(5000, "custom")
	m.Body.SetDecimal(fix.TagPrice, decimal.NewFromInt(10), 2)
	m.Body.SetChar(fix.TagOrdType, '2')
	m.Body.SetChar(fix.TagSide, '1')
	m.Body.SetString(fix.TagSymbol, "IBM")
	m.Body.SetString(fix.TagClOrdID, "1")
	m.Body.SetString(5001, "second")

	wire, err := newCodec().Encode(m)
	require.NoError(t, err)
	s := pipes(wire)
	assert.Contains(t, s, "|11=1|55=IBM|54=1|40=2|44=10.00|5000=custom|5001=second|10=")
	assert.Less(t, strings.Index(s, "|52="), strings.Index(s, "|11="), "header before body")

	back, err := newCodec().Decode(wire)
	require.NoError(t, err)
	custom, _ := back.Body.GetString(5000)
	assert.Equal(t, "custom", custom)
}

func TestDecimalFidelity(t *testing.T) {
	m := newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.Set(mustDecimal(t, fix.TagPrice, "12.340"))

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	assert.Contains(t, pipes(wire), "|44=12.340|")

	back, err := c.Decode(wire)
	require.NoError(t, err)
	px, err := back.Body.GetDecimal(fix.TagPrice)
	require.NoError(t, err)
	assert.True(t, px.Equal(decimal.RequireFromString("12.34")))

	again, err := c.Encode(back)
	require.NoError(t, err)
	assert.Contains(t, pipes(again), "|44=12.340|")
}

func TestDataFieldsWithSOH(t *testing.T) {
	payload := []byte("a\x01b=c\x01")
	m := newHeader(fix.MsgTypeLogon)
	m.Body.SetInt(fix.TagEncryptMethod, 0)
	m.Body.SetInt(fix.TagHeartBtInt, 30)
	m.Body.SetData(fix.TagRawDataLength, fix.TagRawData, payload)

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	checkFraming(t, wire)

	back, err := c.Decode(wire)
	require.NoError(t, err)
	got, err := back.Body.GetBytes(fix.TagRawData)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.True(t, m.Equal(back))

	// 重复组内的数据字段
	lines := groupDef(t, fix.MsgTypeEmail, fix.TagNoLinesOfText)
	email := newHeader(fix.MsgTypeEmail)
	email.Body.SetString(fix.TagEmailThreadID, "T1")
	email.Body.SetChar(fix.TagEmailType, '0')
	email.Body.SetString(fix.TagSubject, "hello")
	for _, text := range []string{"line1", "line2"} {
		e := fix.NewFieldMap()
		e.SetString(fix.TagText, text)
		e.SetData(fix.TagEncodedTextLen, fix.TagEncodedText, []byte(text+"\x01enc"))
		email.Body.AddGroup(lines, e)
	}
	wire, err = c.Encode(email)
	require.NoError(t, err)
	back, err = c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, email.Equal(back))

	_, err = c.Decode(frame("35=A|95=2|96=abc|"))
	require.ErrorIs(t, err, fix.ErrStructural)

	// 数值字段 108=30 不会被当作数据长度
	logon, err := c.Decode(frame("35=A|98=0|108=30|95=3|96=a\x01c|"))
	require.NoError(t, err)
	got, err = logon.Body.GetBytes(fix.TagRawData)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\x01c"), got)
	wire, err = c.Encode(logon)
	require.NoError(t, err)
	back, err = c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, logon.Equal(back))
}

func TestDataLengthPairedOnEncode(t *testing.T) {
	c := newCodec()

	m := newHeader(fix.MsgTypeLogon)
	m.Body.SetInt(fix.TagHeartBtInt, 30)
	m.Body.SetBytes(fix.TagRawData, []byte("a\x01b"))
	_, err := c.Encode(m)
	require.ErrorIs(t, err, fix.ErrFieldNotFound)
	info, _ := fix.Inspect(err)
	assert.Equal(t, fix.TagRawDataLength, info.Tag)

	m.Body.SetInt(fix.TagRawDataLength, 2)
	_, err = c.Encode(m)
	require.ErrorIs(t, err, fix.ErrStructural)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.TagRawDataLength, info.Tag)
	assert.Equal(t, fix.RejectValueIncorrect, info.Reason)

	// 长度字段与数据字段相邻写出, 与插入顺序无关
	m.Body.SetString(fix.TagRawDataLength, "03")
	wire, err := c.Encode(m)
	require.NoError(t, err)
	assert.Contains(t, pipes(wire), "|95=03|96=a|b|")
	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))

	// 未配对的 Data 类型字段不得包含 SOH
	d, err := dictionary.NewBuilder("FIX.4.4").
		Field(fix.TagBeginString, "BeginString", fix.TypeString).
		Field(fix.TagBodyLength, "BodyLength", fix.TypeInt).
		Field(fix.TagMsgType, "MsgType", fix.TypeString).
		Field(fix.TagCheckSum, "CheckSum", fix.TypeString).
		Field(fix.TagText, "Text", fix.TypeString).
		Field(9000, "Blob", fix.TypeData).
		Header([]fix.Tag{fix.TagBeginString, fix.TagBodyLength, fix.TagMsgType}).
		Trailer([]fix.Tag{fix.TagCheckSum}).
		Message("U1", "Custom", []fix.Tag{fix.TagText, 9000}).
		Build()
	require.NoError(t, err)
	custom := fix.NewMessage("U1")
	custom.Body.SetBytes(9000, []byte("x\x01y"))
	_, err = fix.NewCodec(d).Encode(custom)
	require.ErrorIs(t, err, fix.ErrStructural)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.RejectNonDataValueIncludesDelimiter, info.Reason)
}

func TestDeepestGroupClaimsTag(t *testing.T) {
	d, err := dictionary.NewBuilder("FIX.4.4").
		Field(fix.TagBeginString, "BeginString", fix.TypeString).
		Field(fix.TagBodyLength, "BodyLength", fix.TypeInt).
		Field(fix.TagMsgType, "MsgType", fix.TypeString).
		Field(fix.TagCheckSum, "CheckSum", fix.TypeString).
		Field(fix.TagClOrdID, "ClOrdID", fix.TypeString).
		Field(fix.TagText, "Text", fix.TypeString).
		Field(fix.TagNoOrders, "NoOrders", fix.TypeInt).
		Field(fix.TagNoMiscFees, "NoMiscFees", fix.TypeInt).
		Field(fix.TagMiscFeeAmt, "MiscFeeAmt", fix.TypeDecimal).
		Header([]fix.Tag{fix.TagBeginString, fix.TagBodyLength, fix.TagMsgType}).
		Trailer([]fix.Tag{fix.TagCheckSum}).
		Message("J", "Alloc", []fix.Tag{fix.TagNoOrders},
			fix.NewGroupDef(fix.TagNoOrders, "NoOrders",
				[]fix.Tag{fix.TagClOrdID, fix.TagNoMiscFees, fix.TagText},
				fix.NewGroupDef(fix.TagNoMiscFees, "NoMiscFees",
					[]fix.Tag{fix.TagMiscFeeAmt, fix.TagText}))).
		Build()
	require.NoError(t, err)
	c := fix.NewCodec(d)

	text := func(fm *fix.FieldMap) string {
		s, _ := fm.GetString(fix.TagText)
		return s
	}

	// Text 同时属于外层条目与内层条目: 先由最内层认领, 内层已有时交还外层
	m, err := c.Decode(frame("35=J|73=1|11=A|136=1|137=5|58=inner|58=outer|"))
	require.NoError(t, err)
	outer, err := m.Body.GetGroup(fix.TagNoOrders, 0)
	require.NoError(t, err)
	inner, err := outer.GetGroup(fix.TagNoMiscFees, 0)
	require.NoError(t, err)
	assert.Equal(t, "inner", text(inner))
	assert.Equal(t, "outer", text(outer))

	m, err = c.Decode(frame("35=J|73=1|11=A|136=1|137=5|58=x|"))
	require.NoError(t, err)
	outer, _ = m.Body.GetGroup(fix.TagNoOrders, 0)
	inner, _ = outer.GetGroup(fix.TagNoMiscFees, 0)
	assert.Equal(t, "x", text(inner))
	assert.False(t, outer.Has(fix.TagText))

	// 外层字段先于内层组出现时仍归外层
	m, err = c.Decode(frame("35=J|73=2|11=A|58=o1|136=1|137=5|58=i1|11=B|"))
	require.NoError(t, err)
	outer, _ = m.Body.GetGroup(fix.TagNoOrders, 0)
	inner, _ = outer.GetGroup(fix.TagNoMiscFees, 0)
	assert.Equal(t, "o1", text(outer))
	assert.Equal(t, "i1", text(inner))
	assert.Equal(t, 2, m.Body.GroupCount(fix.TagNoOrders))

	wire, err := c.Encode(m)
	require.NoError(t, err)
	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
}

func TestDecodeStructuralErrors(t *testing.T) {
	cases := []struct {
		name   string
		wire   []byte
		tag    fix.Tag
		reason fix.RejectReason
	}{
		{"count too high", frame("35=J|73=2|11=A1|"), fix.TagNoOrders, fix.RejectIncorrectNumInGroup},
		{"count too low", frame("35=J|73=1|11=A1|11=A2|"), fix.TagNoOrders, fix.RejectIncorrectNumInGroup},
		{"count without entries", frame("35=J|73=1|70=X|"), fix.TagNoOrders, fix.RejectIncorrectNumInGroup},
		{"first member not delimiter", frame("35=J|73=1|37=O1|11=A1|"), fix.TagOrderID, fix.RejectGroupFieldsOutOfOrder},
		{"negative count", frame("35=J|73=-1|"), fix.TagNoOrders, fix.RejectIncorrectDataFormat},
		{"member outside group", frame("35=J|11=A1|"), fix.TagClOrdID, fix.RejectGroupFieldsOutOfOrder},
		{"duplicate tag", frame("35=D|11=1|11=2|"), fix.TagClOrdID, fix.RejectTagAppearsMoreThanOnce},
		{"header tag in body", frame("35=D|11=1|49=X|"), fix.TagSenderCompID, fix.RejectTagOutOfOrder},
		{"body tag after trailer", frame("35=D|11=1|93=3|89=abc|55=IBM|"), fix.TagSymbol, fix.RejectTagOutOfOrder},
		{"empty value", frame("35=D|55=|"), fix.TagSymbol, fix.RejectTagWithoutValue},
		{"misplaced checksum", frame("35=D|10=000|55=IBM|"), fix.TagCheckSum, fix.RejectTagOutOfOrder},
		{"missing checksum", soh("8=FIX.4.4|9=5|35=0|112=X|"), fix.TagCheckSum, fix.RejectRequiredTagMissing},
		{"bad leading order", soh("9=5|8=FIX.4.4|35=0|10=000|"), fix.TagBeginString, fix.RejectTagOutOfOrder},
		{"invalid tag", soh("8=FIX.4.4|9=5|3a=0|10=000|"), 0, fix.RejectInvalidTagNumber},
		{"data length overflow", frame("35=A|98=0|108=30|95=9223372036854775800|96=abc|"), fix.TagRawData, fix.RejectIncorrectDataFormat},
		{"data length past end", frame("35=A|98=0|108=30|95=50|96=abc|"), fix.TagRawData, fix.RejectIncorrectDataFormat},
		{"data without its length", frame("35=A|98=0|108=3|96=abc|"), fix.TagRawData, fix.RejectIncorrectDataFormat},
		{"data after unrelated field", frame("35=A|95=3|98=0|96=abc|"), fix.TagRawData, fix.RejectIncorrectDataFormat},
		{"negative data length", frame("35=A|95=-1|96=abc|"), fix.TagRawDataLength, fix.RejectIncorrectDataFormat},
		{"duplicate msg type", frame("35=0|35=0|"), fix.TagMsgType, fix.RejectTagAppearsMoreThanOnce},
	}
	c := newCodec()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := c.Decode(tc.wire)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, fix.ErrStructural)

			info, ok := fix.Inspect(err)
			require.True(t, ok)
			assert.Equal(t, tc.tag, info.Tag)
			assert.Equal(t, tc.reason, info.Reason)
			assert.False(t, info.Garbled)
		})
	}

	_, err := c.Decode(frame("35=J|73=2|11=A1|"))
	info, _ := fix.Inspect(err)
	assert.Equal(t, fix.MsgTypeAllocationInstruction, info.MsgType)
}

func TestDecodeZeroCountGroup(t *testing.T) {
	m, err := newCodec().Decode(frame("35=J|70=X|73=0|"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Body.GroupCount(fix.TagNoOrders))
	n, err := m.Body.GetInt(fix.TagNoOrders)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// 以普通计数字段构造的零条目重复组与解码结果相等
	built := newHeader(fix.MsgTypeAllocationInstruction)
	built.Body.SetString(fix.TagAllocID, "X")
	built.Body.SetInt(fix.TagNoOrders, 0)
	c := newCodec()
	wire, err := c.Encode(built)
	require.NoError(t, err)
	assert.Contains(t, pipes(wire), "|73=0|")
	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, built.Equal(back))
	assert.True(t, back.Equal(built))

	built.Body.SetInt(fix.TagNoOrders, 1)
	assert.False(t, built.Equal(back))
}

func TestChecksumMismatch(t *testing.T) {
	m := newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(fix.TagSymbol, "IBM")
	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)

	sum, err := strconv.Atoi(string(wire[len(wire)-4 : len(wire)-1]))
	require.NoError(t, err)
	bad := append([]byte(nil), wire[:len(wire)-4]...)
	bad = append(bad, fix.FormatChecksum((sum+1)%256)...)
	bad = append(bad, fix.SOH)

	back, err := c.Decode(bad)
	require.Error(t, err)
	assert.Nil(t, back)
	assert.ErrorIs(t, err, fix.ErrChecksumMismatch)
	info, ok := fix.Inspect(err)
	require.True(t, ok)
	assert.True(t, info.Garbled)
	assert.Equal(t, fix.TagCheckSum, info.Tag)

	// 校验关闭时接受
	_, err = newCodec(fix.WithValidation(false, true)).Decode(bad)
	assert.NoError(t, err)
}

func TestSingleByteMutationChangesChecksum(t *testing.T) {
	m := newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(fix.TagSymbol, "IBM")
	wire, err := newCodec().Encode(m)
	require.NoError(t, err)

	k := bytes.LastIndex(wire, []byte("\x0110=")) + 1
	orig := fix.Checksum(wire[:k])
	i := bytes.Index(wire, []byte("IBM"))
	require.Positive(t, i)

	mutated := append([]byte(nil), wire...)
	mutated[i+2] = 'N'
	assert.NotEqual(t, orig, fix.Checksum(mutated[:k]))

	_, err = newCodec().Decode(mutated)
	assert.ErrorIs(t, err, fix.ErrChecksumMismatch)
}

func TestBodyLengthMismatch(t *testing.T) {
	body := "35=0|112=T|"
	msg := "8=FIX.4.4\x019=99\x01" + strings.ReplaceAll(body, "|", "\x01")
	wire := []byte(msg + "10=" + fix.FormatChecksum(fix.Checksum([]byte(msg))) + "\x01")

	_, err := newCodec().Decode(wire)
	require.ErrorIs(t, err, fix.ErrBodyLengthMismatch)
	info, ok := fix.Inspect(err)
	require.True(t, ok)
	assert.True(t, info.Garbled)
	assert.Equal(t, fix.TagBodyLength, info.Tag)

	m, err := newCodec(fix.WithValidation(true, false)).Decode(wire)
	require.NoError(t, err)
	id, _ := m.Body.GetString(fix.TagTestReqID)
	assert.Equal(t, "T", id)
}

func TestUnknownMsgType(t *testing.T) {
	wire := frame("35=ZZ|58=hi|11=x|")

	_, err := newCodec().Decode(wire)
	require.ErrorIs(t, err, fix.ErrUnknownMsgType)
	info, ok := fix.Inspect(err)
	require.True(t, ok)
	assert.Equal(t, fix.RejectInvalidMsgType, info.Reason)
	assert.Equal(t, "ZZ", info.MsgType)

	m, err := newCodec(fix.WithUnknownMsgTypes(true)).Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, "ZZ", m.MsgType())
	assert.Equal(t, []fix.Tag{fix.TagText, fix.TagClOrdID}, m.Body.Tags())

	// 平铺读取时每个 tag 只有一个位置, 重复出现按重复 tag 拒绝
	_, err = newCodec(fix.WithUnknownMsgTypes(true)).Decode(frame("35=ZZ|58=a|58=b|"))
	require.ErrorIs(t, err, fix.ErrStructural)
	info, ok = fix.Inspect(err)
	require.True(t, ok)
	assert.Equal(t, fix.TagText, info.Tag)
	assert.Equal(t, fix.RejectTagAppearsMoreThanOnce, info.Reason)
	assert.Equal(t, "ZZ", info.MsgType)
}

func TestEncodeErrors(t *testing.T) {
	orders := groupDef(t, fix.MsgTypeAllocationInstruction, fix.TagNoOrders)
	c := newCodec()

	m := newHeader(fix.MsgTypeAllocationInstruction)
	e := fix.NewFieldMap()
	e.SetString(fix.TagOrderID, "O1")
	m.Body.AddGroup(orders, e)
	_, err := c.Encode(m)
	require.ErrorIs(t, err, fix.ErrFieldNotFound)
	info, _ := fix.Inspect(err)
	assert.Equal(t, fix.TagClOrdID, info.Tag)
	assert.Equal(t, fix.MsgTypeAllocationInstruction, info.MsgType)

	m = newHeader(fix.MsgTypeAllocationInstruction)
	e = fix.NewFieldMap()
	e.SetString(fix.TagClOrdID, "A1")
	e.SetString(fix.TagSymbol, "IBM")
	m.Body.AddGroup(orders, e)
	_, err = c.Encode(m)
	assert.ErrorIs(t, err, fix.ErrStructural)

	m = newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(fix.TagText, "a\x01b")
	_, err = c.Encode(m)
	require.ErrorIs(t, err, fix.ErrStructural)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.RejectNonDataValueIncludesDelimiter, info.Reason)

	m = newHeader(fix.MsgTypeAllocationInstruction)
	m.Body.SetInt(fix.TagNoOrders, 2)
	_, err = c.Encode(m)
	require.ErrorIs(t, err, fix.ErrStructural)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.RejectIncorrectNumInGroup, info.Reason)

	m.Body.SetInt(fix.TagNoOrders, 0)
	_, err = c.Encode(m)
	assert.NoError(t, err)

	m = fix.NewMessage(fix.MsgTypeHeartbeat)
	_, err = newCodec(fix.WithBeginString("")).Encode(m)
	require.ErrorIs(t, err, fix.ErrFieldNotFound)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.TagBeginString, info.Tag)

	m = newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(fix.TagText, "")
	_, err = c.Encode(m)
	require.ErrorIs(t, err, fix.ErrStructural)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.TagText, info.Tag)
	assert.Equal(t, fix.RejectTagWithoutValue, info.Reason)

	// MsgType 只能由 NewMessage 决定
	m = newHeader(fix.MsgTypeHeartbeat)
	m.Header.SetString(fix.TagMsgType, fix.MsgTypeLogon)
	_, err = c.Encode(m)
	require.ErrorIs(t, err, fix.ErrStructural)
	info, _ = fix.Inspect(err)
	assert.Equal(t, fix.TagMsgType, info.Tag)
	assert.Equal(t, fix.RejectTagAppearsMoreThanOnce, info.Reason)
}

func TestEncodeDerivedFields(t *testing.T) {
	m := newHeader(fix.MsgTypeHeartbeat)
	m.Header.SetInt(fix.TagBodyLength, 999)
	m.Trailer.SetString(fix.TagCheckSum, "000")

	c := newCodec()
	wire, err := c.Encode(m)
	require.NoError(t, err)
	checkFraming(t, wire)
	assert.NotContains(t, pipes(wire), "9=999")

	// Encode 不修改消息
	n, _ := m.Header.GetInt(fix.TagBodyLength)
	assert.Equal(t, 999, n)

	fresh := newHeader(fix.MsgTypeHeartbeat)
	_, err = c.Encode(fresh)
	require.NoError(t, err)
	assert.False(t, fresh.Header.Has(fix.TagBodyLength))
	assert.False(t, fresh.Trailer.Has(fix.TagCheckSum))

	back, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, m.Equal(back), "derived fields are ignored by Equal")
}

func TestStampAndConfig(t *testing.T) {
	c := newCodec(fix.WithTimestampPrecision(datetime.Micros))
	m := fix.NewMessage(fix.MsgTypeHeartbeat)
	c.Stamp(m, ts)
	s, err := m.Header.GetString(fix.TagSendingTime)
	require.NoError(t, err)
	assert.Equal(t, "20240102-15:04:05.123000", s)

	cfg := config.Default().Codec
	cfg.BeginString = "FIX.4.2"
	cfg.TimestampPrecision = "seconds"
	c, err = fix.NewCodecFromConfig(dictionary.FIX44(), cfg)
	require.NoError(t, err)
	c.Stamp(m, ts)
	s, _ = m.Header.GetString(fix.TagSendingTime)
	assert.Equal(t, "20240102-15:04:05", s)

	wire, err := c.Encode(m)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(wire, []byte("8=FIX.4.2\x01")))
	assert.Same(t, dictionary.FIX44(), c.Dictionary())

	cfg.TimestampPrecision = "hours"
	_, err = fix.NewCodecFromConfig(dictionary.FIX44(), cfg)
	assert.Error(t, err)
}

func TestCodecMetrics(t *testing.T) {
	reg := metrics.NewMetrics("fix-test")
	c := newCodec(fix.WithMetrics(reg))

	m := newHeader(fix.MsgTypeNewOrderSingle)
	m.Body.SetString(fix.TagSymbol, "IBM")
	wire, err := c.Encode(m)
	require.NoError(t, err)
	_, err = c.Decode(wire)
	require.NoError(t, err)
	_, err = c.Decode(frame("35=D|11=1|11=2|"))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.MessagesEncoded.WithLabelValues("D")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.MessagesDecoded.WithLabelValues("D")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.DecodeErrors.WithLabelValues("structural")))
}

func TestMessageCloneIndependent(t *testing.T) {
	orders := groupDef(t, fix.MsgTypeAllocationInstruction, fix.TagNoOrders)
	m := newHeader(fix.MsgTypeAllocationInstruction)
	e := fix.NewFieldMap()
	e.SetString(fix.TagClOrdID, "A1")
	m.Body.AddGroup(orders, e)

	c := m.Clone()
	require.True(t, m.Equal(c))
	entry, err := c.Body.GetGroup(fix.TagNoOrders, 0)
	require.NoError(t, err)
	entry.SetString(fix.TagClOrdID, "CHANGED")
	c.Header.SetString(fix.TagSenderCompID, "OTHER")

	assert.False(t, m.Equal(c))
	orig, _ := m.Body.GetGroup(fix.TagNoOrders, 0)
	id, _ := orig.GetString(fix.TagClOrdID)
	assert.Equal(t, "A1", id)
	sender, _ := m.Header.GetString(fix.TagSenderCompID)
	assert.Equal(t, "CLIENT", sender)

	var nilMsg *fix.Message
	assert.False(t, m.Equal(nilMsg))
	assert.Contains(t, m.String(), "35=J|")
}

func FuzzDecode(f *testing.F) {
	for _, body := range []string{
		"35=0|112=T1|",
		"35=A|98=0|108=30|95=3|96=a\x01b|",
		"35=D|11=1|55=IBM|54=1|38=100.00|44=10.5|",
		"35=J|70=X|73=2|11=A1|37=O1|11=A2|",
		"35=J|70=X|73=0|",
		"35=8|37=O|17=E|136=1|137=1.5|138=USD|",
		"35=C|164=T|94=0|147=s|33=1|58=l|354=3|355=x\x01y|",
		"35=i|117=Q|296=1|302=S|295=1|299=E|55=IBM|132=1.0|",
		"35=D|11=1|93=3|89=abc|",
	} {
		f.Add(frame(body))
	}
	c := newCodec()

	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := c.Decode(data)
		if err != nil {
			assert.Nil(t, m)
			return
		}
		wire, err := c.Encode(m)
		require.NoError(t, err)
		back, err := c.Decode(wire)
		require.NoError(t, err)
		assert.True(t, m.Equal(back), "%s\n%s", m, back)
	})
}
