// Package command implements the dispatcher and per-command handlers: the
// top of the dependency stack, wiring resp, store, waitregistry, txn and
// serverinfo together into the RESP command surface.
package command

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vaultkv/vaultkv/internal/resp"
	"github.com/vaultkv/vaultkv/internal/serverinfo"
	"github.com/vaultkv/vaultkv/internal/store"
	"github.com/vaultkv/vaultkv/internal/txn"
	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

// Deps bundles the shared subsystems every handler may need. One Deps is
// constructed at server startup and shared read-only across connections;
// the subsystems it points to carry their own internal locking.
type Deps struct {
	Store *store.Store
	Wait  *waitregistry.Registry
	Info  *serverinfo.Info
	Log   *zap.Logger

	// ErrRecorder, if set, captures operationally interesting errors
	// (malformed input, recovered panics) for later inspection. The admin
	// plane's /debug/errors ring implements this. Nil is a valid, inert
	// value — recording is best-effort observability, not load-bearing.
	ErrRecorder ErrorRecorder
}

// ErrorRecorder receives a short context label and the error it's tied to.
type ErrorRecorder interface {
	RecordError(context string, err error)
}

func recordErr(d *Deps, context string, err error) {
	if d != nil && d.ErrRecorder != nil {
		d.ErrRecorder.RecordError(context, err)
	}
}

// handlerFunc executes one already-parsed command. allowBlock is false
// when the command is running inside an EXEC batch: blocking handlers
// must take their immediate, non-suspending path regardless of any
// timeout argument.
type handlerFunc func(ctx context.Context, d *Deps, args []string, allowBlock bool) resp.Reply

var table = map[string]handlerFunc{
	"PING":   cmdPing,
	"ECHO":   cmdEcho,
	"TYPE":   cmdType,
	"SET":    cmdSet,
	"GET":    cmdGet,
	"INCR":   cmdIncr,
	"RPUSH":  cmdRPush,
	"LPUSH":  cmdLPush,
	"LRANGE": cmdLRange,
	"LLEN":   cmdLLen,
	"LPOP":   cmdLPop,
	"RPOP":   cmdRPop,
	"BLPOP":  cmdBLPop,
	"XADD":   cmdXAdd,
	"XRANGE": cmdXRange,
	"XREAD":  cmdXRead,
	"INFO":   cmdInfo,
}

// Dispatch handles one decoded argument vector for a connection. It owns
// the transaction interaction (queue-or-execute) so a single entry point
// covers §4.7 and §4.8 of the wire contract: MULTI/EXEC/DISCARD are
// intercepted here, never reaching the handler table as queued commands.
func Dispatch(ctx context.Context, d *Deps, tx *txn.State, args []string) resp.Reply {
	if len(args) == 0 {
		return nil
	}

	name := strings.ToUpper(args[0])

	switch name {
	case "MULTI":
		if tx.Active() {
			return resp.Error("ERR MULTI calls can not be nested")
		}
		tx.Begin()
		return resp.SimpleString("OK")
	case "DISCARD":
		if !tx.Discard() {
			return resp.Error("ERR DISCARD without MULTI")
		}
		return resp.SimpleString("OK")
	case "EXEC":
		if !tx.Active() {
			return resp.Error("ERR EXEC without MULTI")
		}
		queued := tx.Drain()
		if len(queued) == 0 {
			return resp.Array(nil)
		}
		replies := make([]resp.Reply, len(queued))
		for i, cmdArgs := range queued {
			replies[i] = execute(ctx, d, cmdArgs, false)
		}
		return resp.Array(replies)
	}

	if tx.Active() {
		tx.Queue(args)
		return resp.SimpleString("QUEUED")
	}

	return execute(ctx, d, args, true)
}

// execute runs one command outside any transaction-queuing concern,
// either as a direct dispatch or as one step of an EXEC replay (with
// allowBlock=false).
func execute(ctx context.Context, d *Deps, args []string, allowBlock bool) resp.Reply {
	name := strings.ToUpper(args[0])
	h, ok := table[name]
	if !ok {
		err := fmt.Errorf("unknown command %q", args[0])
		recordErr(d, "unknown-command", err)
		return resp.Error(fmt.Sprintf("ERR unknown command '%s'", args[0]))
	}
	return h(ctx, d, args, allowBlock)
}

func arityErr(name string) resp.Reply {
	return resp.Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}
