package fix

import (
	"bytes"
	"strconv"
)

// token 是报文中的一个 tag=value<SOH> 片段. start 指向 tag 首字节, end 指向 SOH 之后.
type token struct {
	tag   Tag
	value string
	start int
	end   int
}

// tokenize 将整条报文切分为 token. 数据字段按紧邻其前的配对长度字段读取定长字节, 其值可以包含 SOH.
func tokenize(data []byte, dict Dictionary) ([]token, error) {
	toks := make([]token, 0, 32)
	pos := 0

	for pos < len(data) {
		start := pos
		// 扫描 tag: 纯数字直到 '='
		tag := 0
		for pos < len(data) && data[pos] != '=' {
			c := data[pos]
			if c < '0' || c > '9' {
				return nil, structural(0, RejectInvalidTagNumber, "invalid tag byte %q at offset %d", c, pos)
			}
			tag = tag*10 + int(c-'0')
			if tag > 1<<24 {
				return nil, structural(0, RejectInvalidTagNumber, "tag too large at offset %d", start)
			}
			pos++
		}
		if pos == len(data) {
			return nil, structural(0, RejectOther, "truncated field at offset %d", start)
		}
		if pos == start || tag == 0 {
			return nil, structural(0, RejectInvalidTagNumber, "missing tag at offset %d", start)
		}
		pos++ // '='

		t := Tag(tag)
		var value []byte
		if lenTag, ok := dict.DataLength(t); ok {
			n, err := dataLength(toks, t, lenTag)
			if err != nil {
				return nil, err
			}
			// 值之后至少还需要一个 SOH
			if n > len(data)-pos-1 || data[pos+n] != SOH {
				return nil, structural(t, RejectIncorrectDataFormat,
					"data field %d: declared length %d does not end at a delimiter", t, n)
			}
			value = data[pos : pos+n]
			pos += n + 1
		} else {
			idx := bytes.IndexByte(data[pos:], SOH)
			if idx < 0 {
				return nil, structural(t, RejectOther, "field %d is not terminated by SOH", t)
			}
			value = data[pos : pos+idx]
			pos += idx + 1
		}
		if len(value) == 0 {
			return nil, structural(t, RejectTagWithoutValue, "tag %d has no value", t)
		}

		toks = append(toks, token{tag: t, value: string(value), start: start, end: pos})
	}
	return toks, nil
}

// dataLength 读取数据字段 t 的长度, 长度字段 lenTag 必须是紧邻的上一个字段.
func dataLength(toks []token, t, lenTag Tag) (int, error) {
	if len(toks) == 0 || toks[len(toks)-1].tag != lenTag {
		return 0, structural(t, RejectIncorrectDataFormat,
			"data field %d must directly follow its length field %d", t, lenTag)
	}
	n, err := strconv.Atoi(toks[len(toks)-1].value)
	if err != nil || n < 0 {
		return 0, structural(lenTag, RejectIncorrectDataFormat,
			"length field %d has invalid value %q", lenTag, toks[len(toks)-1].value)
	}
	return n, nil
}
