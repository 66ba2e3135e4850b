package command

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/vaultkv/vaultkv/internal/resp"
	"github.com/vaultkv/vaultkv/internal/store"
	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

// cmdXAdd implements XADD key id [field value ...].
func cmdXAdd(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) < 3 || (len(args)-3)%2 != 0 {
		return arityErr("xadd")
	}

	fieldArgs := args[3:]
	fields := make([]store.Field, 0, len(fieldArgs)/2)
	for i := 0; i < len(fieldArgs); i += 2 {
		fields = append(fields, store.Field{Name: fieldArgs[i], Value: fieldArgs[i+1]})
	}

	id, err := d.Store.StreamAdd(d.Wait, args[1], args[2], fields, uint64(time.Now().UnixMilli()))
	if err != nil {
		return resp.Error(err.Error())
	}
	return resp.BulkString(encodeID(id))
}

// cmdXRange implements XRANGE key start end.
func cmdXRange(_ context.Context, d *Deps, args []string, _ bool) resp.Reply {
	if len(args) != 4 {
		return arityErr("xrange")
	}
	entries, err := d.Store.StreamRange(args[1], args[2], args[3])
	if err != nil {
		return resp.Error(err.Error())
	}
	return resp.Array(encodeEntries(entries))
}

// cmdXRead implements XREAD [BLOCK ms] STREAMS key [key ...] id [id ...].
func cmdXRead(ctx context.Context, d *Deps, args []string, allowBlock bool) resp.Reply {
	i := 1
	blockMs := int64(-1)
	if i < len(args) && strings.EqualFold(args[i], "BLOCK") {
		if i+1 >= len(args) {
			return resp.Error("ERR syntax error")
		}
		ms, err := strconv.ParseInt(args[i+1], 10, 64)
		if err != nil {
			return resp.Error("ERR timeout is not an integer or out of range")
		}
		blockMs = ms
		i += 2
	}
	if i >= len(args) || !strings.EqualFold(args[i], "STREAMS") {
		return resp.Error("ERR syntax error")
	}
	i++

	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return arityErr("xread")
	}
	n := len(rest) / 2
	keys := rest[:n]
	idSpecs := rest[n:]

	ids := make([]store.StreamID, n)
	for k, spec := range idSpecs {
		if spec == "$" {
			id, err := d.Store.StreamLastID(keys[k])
			if err != nil {
				return resp.Error(err.Error())
			}
			ids[k] = id
			continue
		}
		id, err := parseExplicitID(spec)
		if err != nil {
			return resp.Error(err.Error())
		}
		ids[k] = id
	}

	reply := scanStreams(d, keys, ids)
	if reply != nil {
		return reply
	}
	if blockMs < 0 || !allowBlock {
		return resp.NullArray()
	}

	w := waitregistry.NewWaiter()
	d.Wait.Register(keys, w)

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if blockMs > 0 {
		timer = time.NewTimer(time.Duration(blockMs) * time.Millisecond)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-w.Recv():
	case <-timeoutCh:
		d.Wait.Prune(w)
		return resp.NullArray()
	case <-ctx.Done():
		d.Wait.Prune(w)
		return resp.NullArray()
	}

	if reply := scanStreams(d, keys, ids); reply != nil {
		return reply
	}
	return resp.NullArray()
}

// scanStreams runs one read pass against the snapshotted ids, returning
// nil if no key produced any entries (so the caller knows to keep
// waiting), or the encoded nested-array reply otherwise.
func scanStreams(d *Deps, keys []string, ids []store.StreamID) resp.Reply {
	hits, err := d.Store.StreamReadSince(keys, ids)
	if err != nil {
		return resp.Error(err.Error())
	}
	if len(hits) == 0 {
		return nil
	}
	perKey := make([]resp.Reply, len(hits))
	for i, h := range hits {
		perKey[i] = resp.Array([]resp.Reply{
			resp.BulkString(h.Key),
			resp.Array(encodeEntries(h.Entries)),
		})
	}
	return resp.Array(perKey)
}

func encodeID(id store.StreamID) string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

func parseExplicitID(spec string) (store.StreamID, error) {
	parts := strings.SplitN(spec, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return store.StreamID{}, store.ErrStreamIDInvalid
	}
	if len(parts) == 1 {
		return store.StreamID{Ms: ms, Seq: 0}, nil
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return store.StreamID{}, store.ErrStreamIDInvalid
	}
	return store.StreamID{Ms: ms, Seq: seq}, nil
}

func encodeEntries(entries []store.StreamEntry) []resp.Reply {
	out := make([]resp.Reply, len(entries))
	for i, e := range entries {
		fieldPairs := make([]resp.Reply, 0, len(e.Fields)*2)
		for _, f := range e.Fields {
			fieldPairs = append(fieldPairs, resp.BulkString(f.Name), resp.BulkString(f.Value))
		}
		out[i] = resp.Array([]resp.Reply{
			resp.BulkString(encodeID(e.ID)),
			resp.Array(fieldPairs),
		})
	}
	return out
}
