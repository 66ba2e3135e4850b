package command

import (
	"context"
	"strconv"
	"time"

	"github.com/vaultkv/vaultkv/internal/resp"
	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

func cmdRPush(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	return push(d, args, "rpush", false)
}

func cmdLPush(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	return push(d, args, "lpush", true)
}

func push(d *Deps, args []string, name string, head bool) resp.Reply {
	if len(args) < 3 {
		return arityErr(name)
	}
	n, err := d.Store.Push(d.Wait, args[1], args[2:], head)
	if err != nil {
		return resp.Error(err.Error())
	}
	return resp.Integer(n)
}

func cmdLRange(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 4 {
		return arityErr("lrange")
	}
	start, err1 := strconv.ParseInt(args[2], 10, 64)
	end, err2 := strconv.ParseInt(args[3], 10, 64)
	if err1 != nil || err2 != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	elems, err := d.Store.Range(args[1], start, end)
	if err != nil {
		return resp.Error(err.Error())
	}
	return resp.BulkStrings(elems)
}

func cmdLLen(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 2 {
		return arityErr("llen")
	}
	n, err := d.Store.ListLen(args[1])
	if err != nil {
		return resp.Error(err.Error())
	}
	return resp.Integer(n)
}

func cmdLPop(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	return pop(d, args, "lpop", true)
}

func cmdRPop(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	return pop(d, args, "rpop", false)
}

// pop implements (L|R)POP key [count]. Per spec.md §4.4: a bare pop (no
// count argument) replies as a scalar bulk string on a single popped
// element; any explicit count, even 1, replies as a bulk array.
func pop(d *Deps, args []string, name string, head bool) resp.Reply {
	if len(args) != 2 && len(args) != 3 {
		return arityErr(name)
	}

	scalar := len(args) == 2
	count := int64(1)
	if !scalar {
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			count = 1
		} else {
			count = n
		}
	}

	elems, existed, err := d.Store.Pop(args[1], count, head)
	if err != nil {
		return resp.Error(err.Error())
	}
	if !existed {
		return resp.NullBulk()
	}
	if scalar {
		if len(elems) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(elems[0])
	}
	return resp.BulkStrings(elems)
}

// cmdBLPop implements BLPOP key [key ...] timeout. Per the Open Question
// resolution it watches every listed key, in order, for the first one to
// have data — not just the first argument.
func cmdBLPop(ctx context.Context, d *Deps, args []string, allowBlock bool) resp.Reply {
	if len(args) < 3 {
		return arityErr("blpop")
	}
	keys := args[1 : len(args)-1]
	timeoutSec, err := strconv.ParseFloat(args[len(args)-1], 64)
	if err != nil {
		return resp.Error("ERR timeout is not a float or out of range")
	}

	key, value, ok, err := d.Store.PopHeadIfAny(keys)
	if err != nil {
		return resp.Error(err.Error())
	}
	if ok {
		return resp.BulkStrings([]string{key, value})
	}

	if !allowBlock {
		// Running inside EXEC: never suspend, degrade to immediate miss.
		return resp.NullArray()
	}

	w := waitregistry.NewWaiter()
	d.Wait.Register(keys, w)

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeoutSec > 0 {
		timer = time.NewTimer(time.Duration(timeoutSec * float64(time.Second)))
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case delivery := <-w.Recv():
		return resp.BulkStrings([]string{delivery.Key, delivery.Value})
	case <-timeoutCh:
		d.Wait.Prune(w)
		return resp.NullArray()
	case <-ctx.Done():
		d.Wait.Prune(w)
		return resp.NullArray()
	}
}
