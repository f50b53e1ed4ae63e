// Package datetime 提供 FIX 协议时间类型 (UTCTimestamp, UTCDateOnly, UTCTimeOnly) 的格式化与解析.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

// Precision 时间字段的小数秒精度.
type Precision int

const (
	Seconds Precision = iota
	Millis
	Micros
	Nanos
)

const (
	timestampLayout = "20060102-15:04:05"
	dateLayout      = "20060102"
	timeLayout      = "15:04:05"
)

// ParsePrecision 将配置中的精度名称 (seconds/millis/micros/nanos) 转换为 Precision.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "", "millis", "ms":
		return Millis, nil
	case "seconds", "s":
		return Seconds, nil
	case "micros", "us":
		return Micros, nil
	case "nanos", "ns":
		return Nanos, nil
	default:
		return Millis, fmt.Errorf("unknown timestamp precision %q", s)
	}
}

func (p Precision) suffix() string {
	switch p {
	case Millis:
		return ".000"
	case Micros:
		return ".000000"
	case Nanos:
		return ".000000000"
	default:
		return ""
	}
}

// FormatTimestamp 格式化为 UTCTimestamp, 例如 "20240102-15:04:05.123".
func FormatTimestamp(t time.Time, p Precision) string {
	return t.UTC().Format(timestampLayout + p.suffix())
}

// ParseTimestamp 解析 UTCTimestamp, 小数秒部分可省略或为任意位数.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}

// FormatDate 格式化为 UTCDateOnly / LocalMktDate ("YYYYMMDD").
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate 解析 "YYYYMMDD" 日期, 时分秒为零.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// FormatTimeOnly 格式化为 UTCTimeOnly, 例如 "15:04:05.123".
func FormatTimeOnly(t time.Time, p Precision) string {
	return t.UTC().Format(timeLayout + p.suffix())
}

// ParseTimeOnly 解析 UTCTimeOnly, 日期部分为 0000-01-01.
func ParseTimeOnly(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}
