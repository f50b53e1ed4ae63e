package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wyfcoding/fixmsg/config"
	"github.com/wyfcoding/fixmsg/connectivity/fix"
	"github.com/wyfcoding/fixmsg/connectivity/fix/dictionary"
	"github.com/wyfcoding/fixmsg/logging"
	"github.com/wyfcoding/fixmsg/metrics"
)

// 帧头与 CheckSum 字段之外预留的余量
const maxFrameSize = fix.MaxBodyLength + 4096

type options struct {
	conf     string
	dict     string
	pipe     bool
	json     bool
	failFast bool
	watch    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("fixcat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.conf, "conf", "", "path to config file (TOML)")
	fs.StringVar(&o.dict, "dict", "", "path to dictionary file (TOML), default built-in FIX.4.4")
	fs.BoolVar(&o.pipe, "pipe", false, "treat '|' as the field separator")
	fs.BoolVar(&o.json, "json", false, "print one JSON object per message")
	fs.BoolVar(&o.failFast, "fail-fast", false, "stop at the first rejected message")
	fs.BoolVar(&o.watch, "watch", false, "reload log level when the config file changes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func loadConfig(path string, watch bool) (*config.Config, error) {
	switch {
	case path == "":
		return config.Default(), nil
	case watch:
		return config.Watch(path)
	default:
		return config.Load(path)
	}
}

func loadDictionary(flagPath string, cfg *config.Config) (*dictionary.Dictionary, error) {
	path := flagPath
	if path == "" {
		path = cfg.Dictionary.Path
	}
	if path == "" {
		return dictionary.FIX44(), nil
	}
	return dictionary.Load(path)
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o.conf, o.watch)
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LoggingConfig("fixcat"))
	logger := logging.Default().Component("fixcat")
	config.PrintWithMask(cfg)
	if o.watch {
		config.RegisterReloadHook(func(next *config.Config) {
			logger.Info("fixcat config reloaded", "log_level", next.Log.Level)
		})
	}

	dict, err := loadDictionary(o.dict, cfg)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics("fixcat")
	m.RegisterBuildInfo("fixcat", version, dict.BeginString())
	if cfg.Metrics.Enabled {
		stop := m.ExposeHttp(cfg.Metrics.Port, cfg.Metrics.Path)
		defer stop()
	}

	codec, err := fix.NewCodecFromConfig(dict, cfg.Codec, fix.WithMetrics(m), fix.WithLogger(logger))
	if err != nil {
		return err
	}

	if o.pipe {
		in = pipeReader{r: in}
	}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	sc.Split(fix.SplitMessages)

	p := printer{dict: dict, w: out, json: o.json}
	done := logging.LogDuration(ctx, "fixcat scan", "begin_string", dict.BeginString())
	st := &stats{}
	if o.failFast && cfg.Codec.DecodeConcurrency > 0 {
		err = decodeBatches(ctx, sc, codec, p, st)
	} else {
		err = decodeFrames(ctx, sc, codec, p, o.failFast, st)
	}
	if err != nil {
		return err
	}
	done("decoded", st.decoded, "rejected", st.rejected)
	return nil
}

// 并发解码时每批的报文数
const batchSize = 256

type stats struct {
	decoded  int
	rejected int
}

// decodeFrames 逐帧解码并输出, failFast 时遇到第一条拒绝即返回.
func decodeFrames(ctx context.Context, sc *bufio.Scanner, codec *fix.Codec, p printer, failFast bool, st *stats) error {
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := codec.Decode(sc.Bytes())
		if err != nil {
			st.rejected++
			if perr := p.reject(err); perr != nil {
				return perr
			}
			if failFast {
				logging.Warn(ctx, "fixcat stopped at first reject", "decoded", st.decoded, "error", err)
				return err
			}
			continue
		}
		st.decoded++
		if err := p.message(msg); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input error: %w", err)
	}
	return nil
}

// decodeBatches 按批交给 DecodeAll 并发解码, 输出顺序与输入一致.
// 批内任一报文失败时整批不输出, 打印该拒绝后返回.
func decodeBatches(ctx context.Context, sc *bufio.Scanner, codec *fix.Codec, p printer, st *stats) error {
	batch := make([][]byte, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		msgs, err := codec.DecodeAll(ctx, batch)
		batch = batch[:0]
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			st.rejected++
			if perr := p.reject(err); perr != nil {
				return perr
			}
			logging.Warn(ctx, "fixcat stopped at first reject", "decoded", st.decoded, "error", err)
			return err
		}
		for _, msg := range msgs {
			st.decoded++
			if err := p.message(msg); err != nil {
				return err
			}
		}
		return nil
	}

	for sc.Scan() {
		// Scanner 会复用缓冲区
		batch = append(batch, bytes.Clone(sc.Bytes()))
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input error: %w", err)
	}
	return flush()
}

type printer struct {
	dict *dictionary.Dictionary
	w    io.Writer
	json bool
}

type jsonField struct {
	Tag     int           `json:"tag"`
	Name    string        `json:"name"`
	Value   string        `json:"value,omitempty"`
	Entries [][]jsonField `json:"entries,omitempty"`
}

type jsonMessage struct {
	MsgType string      `json:"msg_type"`
	Name    string      `json:"name,omitempty"`
	Header  []jsonField `json:"header"`
	Body    []jsonField `json:"body"`
	Trailer []jsonField `json:"trailer"`
}

type jsonReject struct {
	Error   string `json:"error"`
	Tag     int    `json:"tag,omitempty"`
	MsgType string `json:"msg_type,omitempty"`
	Reason  string `json:"reject_reason"`
	Garbled bool   `json:"garbled"`
}

func (p printer) layout(msgType string) *fix.Layout {
	if def, ok := p.dict.Message(msgType); ok {
		return def.Layout
	}
	return nil
}

func (p printer) message(m *fix.Message) error {
	if p.json {
		jm := jsonMessage{
			MsgType: m.MsgType(),
			Header:  p.jsonFields(m.Header, p.dict.Header()),
			Body:    p.jsonFields(m.Body, p.layout(m.MsgType())),
			Trailer: p.jsonFields(m.Trailer, p.dict.Trailer()),
		}
		if def, ok := p.dict.Message(m.MsgType()); ok {
			jm.Name = def.Name
		}
		return json.NewEncoder(p.w).Encode(jm)
	}

	var b strings.Builder
	name := m.MsgType()
	if def, ok := p.dict.Message(m.MsgType()); ok {
		name = def.Name
	}
	fmt.Fprintf(&b, "%s (35=%s)\n", name, m.MsgType())
	p.textFields(&b, m.Header, p.dict.Header(), 1)
	p.textFields(&b, m.Body, p.layout(m.MsgType()), 1)
	p.textFields(&b, m.Trailer, p.dict.Trailer(), 1)
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p printer) jsonFields(fm *fix.FieldMap, layout *fix.Layout) []jsonField {
	out := []jsonField{}
	for tag, slot := range fm.InOrder(layoutOrder(layout)) {
		jf := jsonField{Tag: int(tag), Name: p.dict.FieldName(tag)}
		if slot.IsGroup() {
			var entryLayout *fix.Layout
			if def, ok := layout.Group(tag); ok {
				entryLayout = def.Layout
			}
			for _, e := range slot.Group.Entries() {
				jf.Entries = append(jf.Entries, p.jsonFields(e, entryLayout))
			}
		} else {
			jf.Value = slot.Field.String()
		}
		out = append(out, jf)
	}
	return out
}

func (p printer) textFields(b *strings.Builder, fm *fix.FieldMap, layout *fix.Layout, depth int) {
	indent := strings.Repeat("  ", depth)
	for tag, slot := range fm.InOrder(layoutOrder(layout)) {
		if !slot.IsGroup() {
			fmt.Fprintf(b, "%s%s(%d)=%s\n", indent, p.dict.FieldName(tag), tag,
				strings.ReplaceAll(slot.Field.String(), "\x01", "|"))
			continue
		}
		fmt.Fprintf(b, "%s%s(%d)=%d\n", indent, p.dict.FieldName(tag), tag, slot.Group.Len())
		var entryLayout *fix.Layout
		if def, ok := layout.Group(tag); ok {
			entryLayout = def.Layout
		}
		for i, e := range slot.Group.Entries() {
			fmt.Fprintf(b, "%s  [%d]\n", indent, i)
			p.textFields(b, e, entryLayout, depth+2)
		}
	}
}

func layoutOrder(l *fix.Layout) []fix.Tag {
	if l == nil {
		return nil
	}
	return l.Order
}

func (p printer) reject(err error) error {
	info, ok := fix.Inspect(err)
	if p.json {
		jr := jsonReject{Error: err.Error()}
		if ok {
			jr.Tag = int(info.Tag)
			jr.MsgType = info.MsgType
			jr.Reason = string(info.Reason)
			jr.Garbled = info.Garbled
		}
		return json.NewEncoder(p.w).Encode(jr)
	}
	if ok {
		_, werr := fmt.Fprintf(p.w, "REJECT tag=%d msg_type=%q reason=%s garbled=%t: %v\n",
			info.Tag, info.MsgType, info.Reason, info.Garbled, err)
		return werr
	}
	_, werr := fmt.Fprintf(p.w, "REJECT: %v\n", err)
	return werr
}
