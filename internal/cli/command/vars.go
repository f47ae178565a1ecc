package command

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/varmesh-go/internal/dispatch"
)

// GetCommand reads one or more variables.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read one or more variables",
		ArgsUsage: "NAME [NAME...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("get requires at least one NAME")
			}
			result, err := clientFor(c).Read(c.Args().Slice()...)
			if err != nil {
				return err
			}
			return printJSON(c, result)
		},
	}
}

// SetCommand writes one or more variables in a single batch.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Write one or more variables atomically",
		ArgsUsage: "NAME VALUE [NAME VALUE...]",
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("set requires NAME VALUE pairs")
			}
			values := make(map[string]json.RawMessage, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				values[args[i]] = parseValue(args[i+1])
			}
			return clientFor(c).Write(values)
		},
	}
}

// RequestCommand sends a raw request line, for debugging and scripting.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "Send a raw protocol request",
		ArgsUsage: "JSON",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("request requires exactly one JSON argument")
			}
			var req dispatch.Request
			if err := json.Unmarshal([]byte(c.Args().First()), &req); err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}
			resp, err := clientFor(c).Do(req)
			if err != nil {
				return err
			}
			if resp.Result == nil {
				fmt.Fprintln(c.App.Writer, "ok")
				return nil
			}
			return printJSON(c, resp.Result)
		},
	}
}

// parseValue interprets an argument as JSON when possible and as a plain
// string otherwise, so `set name alice` works without shell quoting.
func parseValue(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}

func printJSON(c *cli.Context, raw json.RawMessage) error {
	if c.Bool("compact") {
		_, err := fmt.Fprintln(c.App.Writer, string(raw))
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.App.Writer, buf.String())
	return err
}
