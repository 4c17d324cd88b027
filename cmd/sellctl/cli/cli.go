// Package cli implements the sellctl commands on top of the API client.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sellapp/sellapp/internal/client"
)

// Output carries the writers every command prints to.
type Output struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *Output) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

func (o Output) fail(cmd string, err error) int {
	_, _ = fmt.Fprintf(o.Stderr, "%s: %v\n", cmd, err)
	if client.IsStatus(err, 401) {
		_, _ = fmt.Fprintln(o.Stderr, "hint: run sellctl login or set SELLCTL_TOKEN")
	}
	return 1
}

func (o Output) printJSON(cmd string, v any) int {
	enc := json.NewEncoder(o.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(o.Stderr, "%s: encode json: %v\n", cmd, err)
		return 1
	}
	return 0
}

// OpsCLI groups the API backed commands.
type OpsCLI struct {
	client *client.Client
}

// NewOpsCLI wraps c.
func NewOpsCLI(c *client.Client) *OpsCLI {
	return &OpsCLI{client: c}
}
