package fix

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/fixmsg/datetime"
)

// FieldType 字段的线上类型.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeDecimal
	TypeBool
	TypeChar
	TypeDate
	TypeTime
	TypeTimestamp
	TypeData
)

var fieldTypeNames = [...]string{"String", "Int", "Decimal", "Bool", "Char", "Date", "Time", "Timestamp", "Data"}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return "FieldType(" + strconv.Itoa(int(t)) + ")"
	}
	return fieldTypeNames[t]
}

// ParseFieldType 将 FIX 数据字典中的类型名映射为 FieldType.
func ParseFieldType(name string) (FieldType, error) {
	switch strings.ToLower(name) {
	case "string", "multiplevaluestring", "multiplestringvalue", "multiplecharvalue",
		"currency", "exchange", "country", "language", "monthyear", "xmldata", "tzts":
		return TypeString, nil
	case "int", "length", "seqnum", "numingroup", "tagnum", "dayofmonth":
		return TypeInt, nil
	case "float", "price", "qty", "amt", "percentage", "priceoffset", "decimal":
		return TypeDecimal, nil
	case "boolean", "bool":
		return TypeBool, nil
	case "char":
		return TypeChar, nil
	case "utcdateonly", "localmktdate", "utcdate", "date":
		return TypeDate, nil
	case "utctimeonly", "time":
		return TypeTime, nil
	case "utctimestamp", "timestamp":
		return TypeTimestamp, nil
	case "data":
		return TypeData, nil
	default:
		return TypeString, fmt.Errorf("unknown field type %q", name)
	}
}

// Field 是一个不可变的 tag/value 对. 更新字段即替换为新的 Field.
// raw 保存线上文本, 所有类型化读取都从 raw 解析.
type Field struct {
	tag Tag
	typ FieldType
	raw string
}

// NewRawField 以线上原文构造字段, 解码器使用该构造函数.
func NewRawField(tag Tag, typ FieldType, raw string) Field {
	return Field{tag: tag, typ: typ, raw: raw}
}

func NewStringField(tag Tag, v string) Field {
	return Field{tag: tag, typ: TypeString, raw: v}
}

func NewIntField(tag Tag, v int) Field {
	return Field{tag: tag, typ: TypeInt, raw: strconv.Itoa(v)}
}

// NewDecimalField 以固定小数位数渲染 d, 例如 scale=2 时 10.5 渲染为 "10.50".
func NewDecimalField(tag Tag, d decimal.Decimal, scale int32) Field {
	return Field{tag: tag, typ: TypeDecimal, raw: d.StringFixed(scale)}
}

// ParseDecimalField 保留原始文本 (含末尾零) 构造小数字段. FIX float 不允许指数形式.
func ParseDecimalField(tag Tag, text string) (Field, error) {
	if !isPlainDecimal(text) {
		return Field{}, typeMismatch(tag, TypeDecimal, TypeString, fmt.Errorf("invalid decimal %q", text))
	}
	return Field{tag: tag, typ: TypeDecimal, raw: text}, nil
}

func NewBoolField(tag Tag, v bool) Field {
	if v {
		return Field{tag: tag, typ: TypeBool, raw: "Y"}
	}
	return Field{tag: tag, typ: TypeBool, raw: "N"}
}

func NewCharField(tag Tag, c byte) Field {
	return Field{tag: tag, typ: TypeChar, raw: string([]byte{c})}
}

func NewTimestampField(tag Tag, t time.Time, p datetime.Precision) Field {
	return Field{tag: tag, typ: TypeTimestamp, raw: datetime.FormatTimestamp(t, p)}
}

func NewDateField(tag Tag, t time.Time) Field {
	return Field{tag: tag, typ: TypeDate, raw: datetime.FormatDate(t)}
}

func NewTimeField(tag Tag, t time.Time, p datetime.Precision) Field {
	return Field{tag: tag, typ: TypeTime, raw: datetime.FormatTimeOnly(t, p)}
}

// NewDataField 构造透传字段, 值按字节原样保存, 可包含 SOH.
func NewDataField(tag Tag, b []byte) Field {
	return Field{tag: tag, typ: TypeData, raw: string(b)}
}

func (f Field) Tag() Tag {
	return f.tag
}

func (f Field) Type() FieldType {
	return f.typ
}

// IsZero 报告 f 是否为零值 (未设置).
func (f Field) IsZero() bool {
	return f.tag == 0
}

// String 返回线上文本.
func (f Field) String() string {
	return f.raw
}

// Bytes 返回线上字节的副本, 用于 EncodedText 等不应被重新解释的透传字段.
func (f Field) Bytes() []byte {
	return []byte(f.raw)
}

// compatible 判断访问器类型与字段声明类型是否相容. TypeString 表示类型未知, 任何访问器都可尝试解析.
func (f Field) compatible(want FieldType) bool {
	if f.typ == want || f.typ == TypeString {
		return true
	}
	switch want {
	case TypeDecimal:
		return f.typ == TypeInt
	case TypeTimestamp:
		return f.typ == TypeDate || f.typ == TypeTime
	}
	return false
}

func (f Field) Int() (int, error) {
	if !f.compatible(TypeInt) {
		return 0, typeMismatch(f.tag, TypeInt, f.typ, nil)
	}
	v, err := strconv.Atoi(f.raw)
	if err != nil {
		return 0, typeMismatch(f.tag, TypeInt, f.typ, err)
	}
	return v, nil
}

func (f Field) Decimal() (decimal.Decimal, error) {
	if !f.compatible(TypeDecimal) {
		return decimal.Zero, typeMismatch(f.tag, TypeDecimal, f.typ, nil)
	}
	if !isPlainDecimal(f.raw) {
		return decimal.Zero, typeMismatch(f.tag, TypeDecimal, f.typ, fmt.Errorf("invalid decimal %q", f.raw))
	}
	d, err := decimal.NewFromString(f.raw)
	if err != nil {
		return decimal.Zero, typeMismatch(f.tag, TypeDecimal, f.typ, err)
	}
	return d, nil
}

func (f Field) Bool() (bool, error) {
	if !f.compatible(TypeBool) {
		return false, typeMismatch(f.tag, TypeBool, f.typ, nil)
	}
	switch f.raw {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return false, typeMismatch(f.tag, TypeBool, f.typ, fmt.Errorf("invalid boolean %q", f.raw))
}

func (f Field) Char() (byte, error) {
	if !f.compatible(TypeChar) {
		return 0, typeMismatch(f.tag, TypeChar, f.typ, nil)
	}
	if len(f.raw) != 1 {
		return 0, typeMismatch(f.tag, TypeChar, f.typ, fmt.Errorf("invalid char %q", f.raw))
	}
	return f.raw[0], nil
}

// Time 解析 Timestamp/Date/Time 字段. 类型未知时依次尝试三种格式.
func (f Field) Time() (time.Time, error) {
	if !f.compatible(TypeTimestamp) {
		return time.Time{}, typeMismatch(f.tag, TypeTimestamp, f.typ, nil)
	}
	var (
		t   time.Time
		err error
	)
	switch f.typ {
	case TypeDate:
		t, err = datetime.ParseDate(f.raw)
	case TypeTime:
		t, err = datetime.ParseTimeOnly(f.raw)
	case TypeTimestamp:
		t, err = datetime.ParseTimestamp(f.raw)
	default:
		if t, err = datetime.ParseTimestamp(f.raw); err != nil {
			if t, err = datetime.ParseDate(f.raw); err != nil {
				t, err = datetime.ParseTimeOnly(f.raw)
			}
		}
	}
	if err != nil {
		return time.Time{}, typeMismatch(f.tag, TypeTimestamp, f.typ, err)
	}
	return t, nil
}

// Scalar 列出 ValueOf 支持的类型化取值.
type Scalar interface {
	string | int | decimal.Decimal | bool | byte | time.Time
}

// ValueOf 按 T 读取字段值, 等价于调用对应的类型化访问器.
func ValueOf[T Scalar](f Field) (T, error) {
	var (
		zero T
		v    any
		err  error
	)
	switch any(zero).(type) {
	case string:
		v = f.String()
	case int:
		v, err = f.Int()
	case decimal.Decimal:
		v, err = f.Decimal()
	case bool:
		v, err = f.Bool()
	case byte:
		v, err = f.Char()
	case time.Time:
		v, err = f.Time()
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func isPlainDecimal(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
