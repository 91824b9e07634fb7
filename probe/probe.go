// Package probe replays the canned smoke sequence against a CachewDB
// server: AUTH, SET, GET, in that order, on a single connection, one
// blocking exchange at a time.
package probe

import (
	"fmt"
	"io"

	"github.com/cachewdb/cachew-go/casp"
	"github.com/cachewdb/cachew-go/client"
)

// Commands is the fixed probe sequence. The SET body carries unescaped
// quotes on purpose: the probe exercises how the server copes with it.
var Commands = []string{
	"AUTH Password123#",
	`SET key "whut"whut"`,
	"GET key",
}

// Run sends every probe command over the given client and writes each
// framed request and raw response to w. The first transport fault aborts
// the run; closing the connection is the caller's job.
func Run(w io.Writer, c *client.Client) error {
	for _, command := range Commands {
		framed := casp.Frame(command)
		fmt.Fprintf(w, "Sending: %s", framed)
		response, err := c.Exchange(framed)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Response: %s\n", response)
	}
	return nil
}
