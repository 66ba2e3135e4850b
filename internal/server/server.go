// Package server runs the TCP accept loop: one goroutine per connection,
// capped at a configured concurrency ceiling, each driving a decode →
// dispatch → encode loop against the shared command deps.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vaultkv/vaultkv/internal/command"
	"github.com/vaultkv/vaultkv/internal/resp"
	"github.com/vaultkv/vaultkv/internal/txn"
	"github.com/vaultkv/vaultkv/pkg/fmtt"
)

// Config holds the accept loop's tunables.
type Config struct {
	// MaxConns caps the number of simultaneously served connections;
	// connections beyond the cap wait for a slot rather than being
	// rejected outright.
	MaxConns int64
}

// Server owns the listening socket and the worker pool serving it.
type Server struct {
	ln   net.Listener
	deps *command.Deps
	cfg  Config
	log  *zap.Logger
	sem  *semaphore.Weighted
}

// New wraps an already-bound listener. Callers create the listener (e.g.
// via net.Listen) so bind errors surface before any goroutines start.
func New(ln net.Listener, deps *command.Deps, cfg Config) *Server {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10000
	}
	return &Server{
		ln:   ln,
		deps: deps,
		cfg:  cfg,
		log:  deps.Log.Named("server"),
		sem:  semaphore.NewWeighted(cfg.MaxConns),
	}
}

// Serve runs the accept loop until ctx is canceled or the listener
// returns a fatal error. Each accepted connection is handled in its own
// errgroup-supervised goroutine; a single connection's error never tears
// down its siblings.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return s.ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := s.ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			if err := s.sem.Acquire(ctx, 1); err != nil {
				conn.Close()
				return nil
			}

			connID := uuid.New().String()
			g.Go(func() error {
				defer s.sem.Release(1)
				s.handleConn(ctx, conn, connID)
				return nil
			})
		}
	})

	err := g.Wait()
	if err != nil && (errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn, connID string) {
	log := s.log.With(zap.String("conn_id", connID), zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("connection accepted")
	defer func() {
		conn.Close()
		log.Debug("connection closed")
	}()
	// A handler panic must not take down every other connection's goroutine
	// with it; recover, record, and drop just this one.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recovered handler panic: %v", r)
			if ce := log.Check(zap.DebugLevel, "recovered handler panic"); ce != nil {
				fmtt.PrintErrChainDebug(err)
				ce.Write(zap.Error(err))
			} else {
				log.Error("recovered handler panic", zap.Error(err))
			}
			if s.deps.ErrRecorder != nil {
				s.deps.ErrRecorder.RecordError("handler-panic", err)
			}
		}
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-connCtx.Done()
		// Unblock a read/write in progress when the server is shutting down.
		conn.SetDeadline(time.Now())
	}()

	r := bufio.NewReader(conn)
	tx := txn.New()

	for {
		args, err := resp.Decode(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("decode failed, closing connection", zap.Error(err))
				if s.deps.ErrRecorder != nil {
					s.deps.ErrRecorder.RecordError("resp-decode", err)
				}
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		reply := command.Dispatch(connCtx, s.deps, tx, args)
		if reply == nil {
			continue
		}
		if _, err := conn.Write(reply); err != nil {
			log.Debug("write failed, closing connection", zap.Error(err))
			return
		}
	}
}
