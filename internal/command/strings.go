package command

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/vaultkv/vaultkv/internal/resp"
)

func cmdPing(_ context.Context, _ *Deps, args []string, _ bool) resp.Reply {
	if len(args) > 1 {
		return resp.BulkString(args[1])
	}
	return resp.SimpleString("PONG")
}

func cmdEcho(_ context.Context, _ *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 2 {
		return arityErr("echo")
	}
	return resp.BulkString(args[1])
}

func cmdType(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 2 {
		return arityErr("type")
	}
	kind, ok := d.Store.Kind(args[1])
	if !ok {
		return resp.SimpleString("none")
	}
	return resp.SimpleString(kind.String())
}

// cmdSet implements SET key value [EX seconds | PX milliseconds].
func cmdSet(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 3 && len(args) != 5 {
		return arityErr("set")
	}
	key, value := args[1], args[2]

	var expiry time.Time
	if len(args) == 5 {
		flag := strings.ToUpper(args[3])
		amount, err := strconv.ParseInt(args[4], 10, 64)
		if err != nil {
			return resp.Error("ERR value is not an integer or out of range")
		}
		switch flag {
		case "EX":
			expiry = time.Now().Add(time.Duration(amount) * time.Second)
		case "PX":
			expiry = time.Now().Add(time.Duration(amount) * time.Millisecond)
		default:
			return resp.Error("ERR syntax error")
		}
	}

	d.Store.SetString(key, value, expiry)
	return resp.SimpleString("OK")
}

func cmdGet(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 2 {
		return arityErr("get")
	}
	val, ok, err := d.Store.GetString(args[1])
	if err != nil {
		return resp.Error(err.Error())
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(val)
}

func cmdIncr(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 2 {
		return arityErr("incr")
	}
	n, err := d.Store.Incr(args[1])
	if err != nil {
		return resp.Error(err.Error())
	}
	return resp.Integer(n)
}

func cmdInfo(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	section := ""
	if len(args) > 1 {
		section = args[1]
	}
	return resp.BulkString(d.Info.Render(section))
}
