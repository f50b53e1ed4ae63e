package dictionary

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wyfcoding/fixmsg/connectivity/fix"
	"github.com/wyfcoding/fixmsg/xerrors"
)

// 以下结构对应 TOML 字典文件:
//
//	begin_string = "FIX.4.4"
//
//	[[fields]]
//	tag  = 11
//	name = "ClOrdID"
//	type = "STRING"
//
//	[[fields]]
//	tag        = 96
//	name       = "RawData"
//	type       = "DATA"
//	length_tag = 95
//
//	[header]
//	fields = [8, 9, 35, 49, 56, 34, 52]
//
//	[trailer]
//	fields = [10]
//
//	[[messages]]
//	msg_type = "J"
//	name     = "AllocationInstruction"
//	fields   = [70, 71, 73]
//
//	[[messages.groups]]
//	count_tag = 73
//	name      = "NoOrders"
//	fields    = [11, 37]
type fileSpec struct {
	BeginString string        `mapstructure:"begin_string" validate:"required"`
	Fields      []fieldSpec   `mapstructure:"fields"       validate:"required,dive"`
	Header      sectionSpec   `mapstructure:"header"`
	Trailer     sectionSpec   `mapstructure:"trailer"`
	Messages    []messageSpec `mapstructure:"messages"     validate:"dive"`
}

type fieldSpec struct {
	Tag       int    `mapstructure:"tag"        validate:"gt=0"`
	Name      string `mapstructure:"name"       validate:"required"`
	Type      string `mapstructure:"type"       validate:"required"`
	LengthTag int    `mapstructure:"length_tag" validate:"gte=0"` // 仅 DATA 字段: 对应的长度字段
}

type sectionSpec struct {
	Fields []int       `mapstructure:"fields" validate:"required,min=1,dive,gt=0"`
	Groups []groupSpec `mapstructure:"groups" validate:"dive"`
}

type groupSpec struct {
	CountTag int         `mapstructure:"count_tag" validate:"gt=0"`
	Name     string      `mapstructure:"name"`
	Fields   []int       `mapstructure:"fields"    validate:"required,min=1,dive,gt=0"`
	Groups   []groupSpec `mapstructure:"groups"    validate:"dive"`
}

type messageSpec struct {
	MsgType string      `mapstructure:"msg_type" validate:"required"`
	Name    string      `mapstructure:"name"     validate:"required"`
	Fields  []int       `mapstructure:"fields"   validate:"dive,gt=0"`
	Groups  []groupSpec `mapstructure:"groups"   validate:"dive"`
}

var validate = validator.New()

// Load 从 TOML 文件读取字典.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ErrNotFound, "open dictionary "+path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse 从 TOML 内容读取字典.
func Parse(r io.Reader) (*Dictionary, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read dictionary error: %w", err)
	}

	var spec fileSpec
	if err := v.Unmarshal(&spec); err != nil {
		return nil, fmt.Errorf("unmarshal dictionary error: %w", err)
	}
	if err := validate.Struct(&spec); err != nil {
		return nil, ErrInvalidDictionary.Derive("validation failed").WithCause(err)
	}
	return spec.build()
}

func (s *fileSpec) build() (*Dictionary, error) {
	b := NewBuilder(s.BeginString)
	for _, f := range s.Fields {
		typ, err := fix.ParseFieldType(f.Type)
		if err != nil {
			return nil, ErrInvalidDictionary.Derive("field %d (%s)", f.Tag, f.Name).WithCause(err)
		}
		b.Field(fix.Tag(f.Tag), f.Name, typ)
		if f.LengthTag > 0 {
			b.DataLength(fix.Tag(f.Tag), fix.Tag(f.LengthTag))
		}
	}
	b.Header(tags(s.Header.Fields), groupDefs(s.Header.Groups)...)
	b.Trailer(tags(s.Trailer.Fields), groupDefs(s.Trailer.Groups)...)
	for _, m := range s.Messages {
		b.Message(m.MsgType, m.Name, tags(m.Fields), groupDefs(m.Groups)...)
	}
	return b.Build()
}

func tags(in []int) []fix.Tag {
	out := make([]fix.Tag, len(in))
	for i, t := range in {
		out[i] = fix.Tag(t)
	}
	return out
}

func groupDefs(specs []groupSpec) []*fix.GroupDef {
	defs := make([]*fix.GroupDef, 0, len(specs))
	for _, g := range specs {
		name := g.Name
		if name == "" {
			name = fix.Tag(g.CountTag).String()
		}
		defs = append(defs, fix.NewGroupDef(fix.Tag(g.CountTag), name, tags(g.Fields), groupDefs(g.Groups)...))
	}
	return defs
}
