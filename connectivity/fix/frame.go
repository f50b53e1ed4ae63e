package fix

import (
	"bytes"
	"strconv"
)

var beginPrefix = []byte("8=FIX")

// 10=NNN<SOH>
const checksumFieldLen = 7

// MaxBodyLength 是 SplitMessages 接受的最大 BodyLength, 超出时视为无效起始标记.
const MaxBodyLength = 1 << 20

// Checksum 计算 b 中所有字节之和对 256 取模.
func Checksum(b []byte) int {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}

// FormatChecksum 将校验和格式化为 3 位定宽十进制.
func FormatChecksum(n int) string {
	s := strconv.Itoa(n % 256)
	switch len(s) {
	case 1:
		return "00" + s
	case 2:
		return "0" + s
	}
	return s
}

// SplitMessages 是用于 bufio.Scanner 的分帧函数, 按 BodyLength 从字节流中切出完整报文.
// "8=FIX" 之前的噪声会被跳过; BodyLength 无法解析或超过 MaxBodyLength 时丢弃该起始标记继续向后搜索.
// 流结束时不完整的尾部报文被丢弃.
func SplitMessages(data []byte, atEOF bool) (advance int, token []byte, err error) {
	more := func(start int) (int, []byte, error) {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	off := 0
	for {
		start := indexBegin(data, off)
		if start < 0 {
			if atEOF {
				return len(data), nil, nil
			}
			// 保留可能是起始标记一部分的尾部字节
			if keep := len(data) - (len(beginPrefix) - 1); keep > off {
				return keep, nil, nil
			}
			return off, nil, nil
		}

		frame := data[start:]
		soh := bytes.IndexByte(frame, SOH)
		if soh < 0 {
			return more(start)
		}
		rest := frame[soh+1:]
		if len(rest) < 2 {
			return more(start)
		}
		if rest[0] != '9' || rest[1] != '=' {
			off = start + 1
			continue
		}
		lenEnd := bytes.IndexByte(rest, SOH)
		if lenEnd < 0 {
			return more(start)
		}
		bodyLen, convErr := strconv.Atoi(string(rest[2:lenEnd]))
		if convErr != nil || bodyLen < 0 || bodyLen > MaxBodyLength {
			off = start + 1
			continue
		}
		total := soh + 1 + lenEnd + 1 + bodyLen + checksumFieldLen
		if len(frame) < total {
			return more(start)
		}
		return start + total, frame[:total], nil
	}
}

// indexBegin 从 off 开始查找位于字段边界上的 "8=FIX".
func indexBegin(data []byte, off int) int {
	for off < len(data) {
		i := bytes.Index(data[off:], beginPrefix)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || data[i-1] == SOH {
			return i
		}
		off = i + 1
	}
	return -1
}
