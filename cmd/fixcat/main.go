// fixcat 从标准输入读取 FIX 报文流, 分帧解码后按字段名打印.
//
//	fixcat -pipe < orders.log
//	fixcat -conf ./configs/fixcat/config.toml -dict ./fix44.toml -json < capture.bin
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, "fixcat:", err)
		os.Exit(1)
	}
}

// pipeReader 把 '|' 替换为 SOH, 便于处理日志中的可读报文.
type pipeReader struct {
	r io.Reader
}

func (p pipeReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	for i := range n {
		if b[i] == '|' {
			b[i] = 0x01
		}
	}
	return n, err
}
