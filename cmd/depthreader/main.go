package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"shm-depth-go/internal/container"
	"shm-depth-go/market"
)

// depthreader 轮询共享内存中的深度段，解码后更新指标与日志。
// -once 时只读取一次并以 JSON 行输出每条记录的盘口摘要。
func main() {
	cfgPath := flag.String("config", "configs/depth.yaml", "配置文件路径")
	once := flag.Bool("once", false, "读取一次并输出 JSON 后退出")
	flag.Parse()

	c, err := container.New(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := c.Build(); err != nil {
		_ = c.Stop()
		log.Fatalf("初始化失败: %v", err)
	}

	if *once {
		reader := c.Config().Reader
		buf, err := c.Segment().Copy()
		if err == nil {
			err = dump(context.Background(), os.Stdout, buf, reader.Workers, reader.PriceScale)
		}
		if err != nil {
			c.Logger().LogError(err, map[string]interface{}{"path": c.Segment().Path()})
		}
		if stopErr := c.Stop(); err == nil {
			err = stopErr
		}
		if err != nil {
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		_ = c.Stop()
		log.Fatalf("启动失败: %v", err)
	}

	// 非 systemd 环境下 SdNotify 返回 (false, nil)
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		c.Logger().LogError(err, map[string]interface{}{"action": "sd_notify"})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	if err := c.Stop(); err != nil {
		os.Exit(1)
	}
}

type dumpLine struct {
	Seq int `json:"seq"`
	market.DecimalSummary
}

// dump 解码 buf 中所有完整记录并逐行输出；全 0 的空槽跳过。
func dump(ctx context.Context, w io.Writer, buf []byte, workers, scale int) error {
	snaps, err := market.DecodeAll(ctx, buf, workers)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for i, s := range snaps {
		if s == (market.DepthSnapshot{}) {
			continue
		}
		if err := enc.Encode(dumpLine{Seq: i, DecimalSummary: market.Summarize(s).Decimal(scale)}); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return nil
}
