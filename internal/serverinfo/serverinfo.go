// Package serverinfo renders the process-wide record the INFO command
// exposes: replication status plus a small server identity section.
package serverinfo

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Info is a single process-wide, read-only-after-construction record.
type Info struct {
	role       string
	replID     string
	replOffset int64
	runID      string
}

// New builds a master-role record with freshly generated replication and
// run identifiers. replicaof, when non-empty ("host port"), switches the
// reported role to "slave".
func New(replicaof string) *Info {
	role := "master"
	if replicaof != "" {
		role = "slave"
	}
	return &Info{
		role:       role,
		replID:     randomHex40(),
		replOffset: 0,
		runID:      uuid.New().String(),
	}
}

func randomHex40() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// fall back to a fixed-but-valid-shaped id rather than panic.
		return strings.Repeat("0", 40)
	}
	return hex.EncodeToString(b)
}

// Render produces the text payload of an INFO reply. section is matched
// case-insensitively: "server" renders the server section; anything else
// — "replication", an unknown name, or no argument at all — renders the
// replication block only, so unknown sections are ignored.
func (i *Info) Render(section string) string {
	var b strings.Builder

	if strings.ToLower(section) == "server" {
		fmt.Fprintf(&b, "# Server\r\n")
		fmt.Fprintf(&b, "run_id:%s\r\n", i.runID)
		return b.String()
	}

	fmt.Fprintf(&b, "# Replication\r\n")
	fmt.Fprintf(&b, "role:%s\r\n", i.role)
	fmt.Fprintf(&b, "master_replid:%s\r\n", i.replID)
	fmt.Fprintf(&b, "master_repl_offset:%d\r\n", i.replOffset)
	return b.String()
}
