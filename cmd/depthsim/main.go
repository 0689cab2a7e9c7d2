package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shm-depth-go/logs"
	"shm-depth-go/shm"
	"shm-depth-go/sim"
)

// 本地模拟生产者：创建共享内存段并持续写入随机游走的深度快照，
// 用于在没有真实行情源时驱动 depthreader。
func main() {
	name := flag.String("name", "DepthM", "段名称，位于 /dev/shm 下")
	path := flag.String("path", "", "段文件路径，非空时覆盖 -name")
	records := flag.Int("records", 256, "段容量（记录数）")
	chunk := flag.Int("chunk", 64, "每次写入的记录数")
	interval := flag.Duration("interval", 100*time.Millisecond, "写入间隔")
	price := flag.Int64("price", 10000, "初始价格（整数单位）")
	priceRange := flag.Int64("range", 5, "每步价格随机范围")
	offset := flag.Int64("offset", 2, "每步价格偏移")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "随机种子")
	fillOnly := flag.Bool("fill", false, "写满一次后退出")
	verbose := flag.Bool("v", false, "输出每块写入日志")
	flag.Parse()

	log := logs.NewText(os.Stderr, *verbose)
	logs.DefaultLogger = log

	target := *path
	if target == "" {
		target = shm.ResolvePath(*name)
	}
	w, err := shm.Create(target, *records)
	if err != nil {
		log.Error("create segment failed", "path", target, "error", err)
		os.Exit(1)
	}
	defer w.Close()

	runner := &sim.Runner{
		Gen:    sim.NewGenerator(*price, *priceRange, *offset, *seed),
		Writer: w,
		Chunk:  *chunk,
	}
	runner.SetChunkListener(func(off, n int) {
		log.Debug("chunk_written", "offset", off, "records", n)
	})
	log.Info("segment_created", "path", target, "records", w.Cap())

	n, err := runner.FillAll()
	if err != nil {
		log.Error("initial fill failed", "path", target, "error", err)
		os.Exit(1)
	}
	log.Info("segment_filled", "path", target, "records", n)
	if *fillOnly {
		if err := w.Sync(); err != nil {
			log.Warn("sync failed", "path", target, "error", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := runner.Run(ctx, *interval); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("writer stopped", "path", target, "error", err)
		os.Exit(1)
	}
	log.Info("sim_exit", "path", target)
}
