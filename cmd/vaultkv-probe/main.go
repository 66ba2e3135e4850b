package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vaultkv/vaultkv/pkg/fmtt"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "server address to probe")
	flag.Parse()

	log := buildLogger()
	log = log.Named("main")

	client := redis.NewClient(&redis.Options{Addr: *addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ping", func(ctx context.Context) error { return client.Ping(ctx).Err() }},
		{"set/get roundtrip", func(ctx context.Context) error {
			if err := client.Set(ctx, "vaultkv-probe", "ok", 0).Err(); err != nil {
				return err
			}
			got, err := client.Get(ctx, "vaultkv-probe").Result()
			if err != nil {
				return err
			}
			if got != "ok" {
				return fmt.Errorf("expected %q, got %q", "ok", got)
			}
			return nil
		}},
		{"list push/range", func(ctx context.Context) error {
			if err := client.Del(ctx, "vaultkv-probe-list").Err(); err != nil {
				return err
			}
			if err := client.LPush(ctx, "vaultkv-probe-list", "a", "b", "c").Err(); err != nil {
				return err
			}
			got, err := client.LRange(ctx, "vaultkv-probe-list", 0, -1).Result()
			if err != nil {
				return err
			}
			want := []string{"c", "b", "a"}
			for i := range want {
				if i >= len(got) || got[i] != want[i] {
					return fmt.Errorf("expected %v, got %v", want, got)
				}
			}
			return nil
		}},
	}

	failures := 0
	for _, c := range checks {
		start := time.Now()
		if err := c.run(ctx); err != nil {
			failures++
			log.Error("probe failed", zap.String("check", c.name), zap.Error(err), zap.Duration("took", time.Since(start)))
			fmtt.PrintErrChain(err)
			continue
		}
		log.Info("probe passed", zap.String("check", c.name), zap.Duration("took", time.Since(start)))
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	return zap.Must(logConfig.Build())
}
