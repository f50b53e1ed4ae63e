package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/fixmsg/connectivity/fix"
)

func TestFIX44Shared(t *testing.T) {
	d := FIX44()
	require.Same(t, d, FIX44())

	assert.Equal(t, "FIX.4.4", d.BeginString())
	assert.Equal(t, fix.TypeDecimal, d.FieldType(fix.TagPrice))
	assert.Equal(t, fix.TypeData, d.FieldType(fix.TagRawData))
	assert.Equal(t, fix.TypeString, d.FieldType(9999), "undefined tags default to String")
	assert.Equal(t, "ClOrdID", d.FieldName(fix.TagClOrdID))
	assert.Equal(t, "9999", d.FieldName(9999))

	tag, ok := d.TagByName("NoOrders")
	require.True(t, ok)
	assert.Equal(t, fix.TagNoOrders, tag)

	assert.Equal(t, []string{"0", "3", "8", "A", "C", "D", "J", "b", "i"}, d.MessageTypes())

	for data, length := range map[fix.Tag]fix.Tag{
		fix.TagRawData:     fix.TagRawDataLength,
		fix.TagSecureData:  fix.TagSecureDataLen,
		fix.TagSignature:   fix.TagSignatureLength,
		fix.TagEncodedText: fix.TagEncodedTextLen,
	} {
		got, ok := d.DataLength(data)
		require.True(t, ok, data)
		assert.Equal(t, length, got)
	}
	_, ok = d.DataLength(fix.TagHeartBtInt)
	assert.False(t, ok)
}

func TestFIX44NestedGroups(t *testing.T) {
	def, ok := FIX44().Message(fix.MsgTypeAllocationInstruction)
	require.True(t, ok)

	allocs, ok := def.Layout.Group(fix.TagNoAllocs)
	require.True(t, ok)
	assert.Equal(t, fix.TagAllocAccount, allocs.Delimiter())

	fees, ok := allocs.Layout.Group(fix.TagNoMiscFees)
	require.True(t, ok)
	assert.Equal(t, fix.TagMiscFeeAmt, fees.Delimiter())
	assert.False(t, def.Layout.Has(fix.TagMiscFeeAmt))

	mq, ok := FIX44().Message(fix.MsgTypeMassQuote)
	require.True(t, ok)
	sets, ok := mq.Layout.Group(fix.TagNoQuoteSets)
	require.True(t, ok)
	entries, ok := sets.Layout.Group(fix.TagNoQuoteEntries)
	require.True(t, ok)
	assert.Equal(t, fix.TagQuoteEntryID, entries.Delimiter())
}

func TestBuilderValidation(t *testing.T) {
	base := func() *Builder {
		return NewBuilder("FIX.4.4").
			Field(8, "BeginString", fix.TypeString).
			Field(9, "BodyLength", fix.TypeInt).
			Field(35, "MsgType", fix.TypeString).
			Field(10, "CheckSum", fix.TypeString).
			Field(11, "ClOrdID", fix.TypeString).
			Field(73, "NoOrders", fix.TypeInt).
			Header([]fix.Tag{8, 9, 35}).
			Trailer([]fix.Tag{10})
	}

	_, err := base().Message("J", "Allocation", []fix.Tag{73}, fix.NewGroupDef(73, "NoOrders", []fix.Tag{11})).Build()
	require.NoError(t, err)

	cases := map[string]*Builder{
		"undefined field": base().Message("D", "NewOrderSingle", []fix.Tag{44}),
		"duplicate type":  base().Message("D", "A", []fix.Tag{11}).Message("D", "B", []fix.Tag{11}),
		"bad header":      base().Header([]fix.Tag{35, 8, 9}),
		"bad trailer":     base().Trailer([]fix.Tag{11}),
		"non int count":   base().Message("J", "J", nil, fix.NewGroupDef(11, "Bad", []fix.Tag{73})),
		"duplicate field": base().Field(11, "Other", fix.TypeString),
		"length of non data": base().Field(95, "RawDataLength", fix.TypeInt).
			DataLength(11, 95),
		"non int length": base().Field(96, "RawData", fix.TypeData).
			DataLength(96, 11),
		"two lengths": base().Field(95, "RawDataLength", fix.TypeInt).Field(96, "RawData", fix.TypeData).
			DataLength(96, 95).DataLength(96, 73),
		"shared length": base().Field(95, "RawDataLength", fix.TypeInt).Field(96, "RawData", fix.TypeData).
			Field(355, "EncodedText", fix.TypeData).DataLength(96, 95).DataLength(355, 95),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := b.Build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDictionary))
		})
	}

	_, err = NewBuilder("").Build()
	assert.ErrorIs(t, err, ErrInvalidDictionary)
}

const sampleTOML = `
begin_string = "FIX.4.2"

[[fields]]
tag = 8
name = "BeginString"
type = "STRING"

[[fields]]
tag = 9
name = "BodyLength"
type = "LENGTH"

[[fields]]
tag = 35
name = "MsgType"
type = "STRING"

[[fields]]
tag = 10
name = "CheckSum"
type = "STRING"

[[fields]]
tag = 11
name = "ClOrdID"
type = "STRING"

[[fields]]
tag = 37
name = "OrderID"
type = "STRING"

[[fields]]
tag = 73
name = "NoOrders"
type = "NUMINGROUP"

[[fields]]
tag = 78
name = "NoAllocs"
type = "NUMINGROUP"

[[fields]]
tag = 79
name = "AllocAccount"
type = "STRING"

[[fields]]
tag = 44
name = "Price"
type = "PRICE"

[[fields]]
tag = 95
name = "RawDataLength"
type = "LENGTH"

[[fields]]
tag = 96
name = "RawData"
type = "DATA"
length_tag = 95

[header]
fields = [8, 9, 35]

[trailer]
fields = [10]

[[messages]]
msg_type = "J"
name = "Allocation"
fields = [73, 44]

[[messages.groups]]
count_tag = 73
name = "NoOrders"
fields = [11, 37, 78]

[[messages.groups.groups]]
count_tag = 78
fields = [79]
`

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "FIX.4.2", d.BeginString())
	assert.Equal(t, fix.TypeDecimal, d.FieldType(44))
	assert.Equal(t, fix.TypeInt, d.FieldType(73))

	def, ok := d.Message("J")
	require.True(t, ok)
	orders, ok := def.Layout.Group(73)
	require.True(t, ok)
	assert.Equal(t, fix.Tag(11), orders.Delimiter())
	allocs, ok := orders.Layout.Group(78)
	require.True(t, ok)
	assert.Equal(t, "78", allocs.Layout.Name)

	length, ok := d.DataLength(96)
	require.True(t, ok)
	assert.Equal(t, fix.Tag(95), length)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fix42.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o600))

	d, err := Load(path)
	require.NoError(t, err)

	orders, _ := mustGroup(t, d, "J", 73)
	m := fix.NewMessage("J")
	m.Body.SetString(44, "1.5")
	for _, id := range []string{"A1", "A2"} {
		e := fix.NewFieldMap()
		e.SetString(11, id)
		m.Body.AddGroup(orders, e)
	}

	wire, err := m.ToWire(d)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(wire), "8=FIX.4.2\x01"))

	back, err := fix.FromWire(wire, d)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Body.GroupCount(73))
}

func mustGroup(t *testing.T, d *Dictionary, msgType string, tag fix.Tag) (*fix.GroupDef, *fix.MessageDef) {
	t.Helper()
	def, ok := d.Message(msgType)
	require.True(t, ok)
	g, ok := def.Layout.Group(tag)
	require.True(t, ok)
	return g, def
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(strings.NewReader(`begin_string = "FIX.4.4"`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDictionary)

	bad := strings.Replace(sampleTOML, `type = "PRICE"`, `type = "WIDGET"`, 1)
	_, err = Parse(strings.NewReader(bad))
	assert.ErrorIs(t, err, ErrInvalidDictionary)

	bad = strings.Replace(sampleTOML, "length_tag = 95", "length_tag = 44", 1)
	_, err = Parse(strings.NewReader(bad))
	assert.ErrorIs(t, err, ErrInvalidDictionary)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
