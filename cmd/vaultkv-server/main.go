package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/vaultkv/vaultkv/internal/admin"
	"github.com/vaultkv/vaultkv/internal/command"
	"github.com/vaultkv/vaultkv/internal/server"
	"github.com/vaultkv/vaultkv/internal/serverinfo"
	"github.com/vaultkv/vaultkv/internal/store"
	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

func main() {
	bind := flag.String("bind", "0.0.0.0", "address to listen on")
	port := flag.Int("port", 6379, "RESP listening port")
	adminAddr := flag.String("admin-addr", "127.0.0.1:8080", "admin HTTP plane listen address")
	adminCORSOrigin := flag.String("admin-cors-origin", "", "if set, allow this origin to call the admin HTTP plane")
	replicaof := flag.String("replicaof", "", "\"host port\" of a master to report as (replication itself is out of scope)")
	maxConns := flag.Int64("max-conns", 10000, "maximum simultaneously served connections")
	flag.Parse()

	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	st := store.New(log)
	wr := waitregistry.New()
	info := serverinfo.New(*replicaof)

	var origins []string
	if *adminCORSOrigin != "" {
		origins = []string{*adminCORSOrigin}
	}
	adminSrv := admin.New(admin.Config{Addr: *adminAddr, AllowedOrigins: origins}, st, log)

	deps := &command.Deps{
		Store:       st,
		Wait:        wr,
		Info:        info,
		Log:         log,
		ErrRecorder: adminSrv,
	}

	addr := net.JoinHostPort(*bind, strconv.Itoa(*port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("failed to bind RESP listener", zap.String("addr", addr), zap.Error(err))
	}
	log.Info("RESP listener bound", zap.String("addr", addr))

	srv := server.New(ln, deps, server.Config{MaxConns: *maxConns})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	g.Go(func() error { return adminSrv.ListenAndServe() })
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	return zap.Must(logConfig.Build())
}

