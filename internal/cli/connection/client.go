package connection

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/varmesh-go/internal/dispatch"
)

// DefaultTimeout bounds a full request/response exchange.
const DefaultTimeout = 10 * time.Second

// Client talks the line protocol to a varmesh server.
type Client struct {
	network string
	addr    string
	timeout time.Duration
}

// New creates a client for addr. A "unix://" prefix selects the local
// socket transport; anything else is treated as a TCP host:port.
func New(addr string) *Client {
	c := &Client{network: "tcp", addr: addr, timeout: DefaultTimeout}
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		c.network = "unix"
		c.addr = path
	}
	return c
}

// WithTimeout overrides the exchange timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// Do sends one request and returns the decoded response. A response
// carrying a protocol error is returned as a Go error.
func (c *Client) Do(req dispatch.Request) (*dispatch.Response, error) {
	conn, err := net.DialTimeout(c.network, c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	raw, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp dispatch.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	return &resp, nil
}

// Read fetches the named variables and returns the result object.
func (c *Client) Read(names ...string) (json.RawMessage, error) {
	var params any = names
	if len(names) == 1 {
		params = names[0]
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(dispatch.Request{Method: dispatch.MethodRead, Params: raw})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Write applies the given name to value batch.
func (c *Client) Write(values map[string]json.RawMessage) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = c.Do(dispatch.Request{Method: dispatch.MethodWrite, Params: raw})
	return err
}
