package fix

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/fixmsg/xerrors"
)

// DecodeAll 并发解码彼此独立的报文, 结果与 frames 一一对应.
// 并发度由 WithConcurrency 限制; 任一报文失败即取消其余任务并返回该错误,
// 错误上下文中的 frame 为失败报文的下标.
func (c *Codec) DecodeAll(ctx context.Context, frames [][]byte) ([]*Message, error) {
	out := make([]*Message, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for i, frame := range frames {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.Error("fix decode panic recovered", "frame", i, "panic", rec, "stack", string(debug.Stack()))
					err = xerrors.Internal(fmt.Sprintf("decode frame %d panic", i), fmt.Errorf("%v", rec))
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := c.Decode(frame)
			if err != nil {
				if e, ok := Inspect(err); ok {
					e.Err.WithContext("frame", i)
				}
				return err
			}
			out[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
