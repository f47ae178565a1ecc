package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yndnr/varmesh-go/internal/access"
	"github.com/yndnr/varmesh-go/internal/core/domain"
	"github.com/yndnr/varmesh-go/internal/store"
	"github.com/yndnr/varmesh-go/internal/telemetry/logger"
	"github.com/yndnr/varmesh-go/internal/telemetry/metric"
)

// Dispatcher executes decoded requests against a store root through an
// access registry.
type Dispatcher struct {
	root    *store.Root
	reg     *access.Registry
	log     logger.Logger
	metrics *metric.Registry
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for request accounting.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithMetrics wires request counters and latency histograms.
func WithMetrics(m *metric.Registry) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New returns a Dispatcher over root and reg.
func New(root *store.Root, reg *access.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{root: root, reg: reg}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Default()
	}
	return d
}

// Dispatch decodes one request line and returns the encoded response. It
// never returns an error; protocol failures become error responses.
func (d *Dispatcher) Dispatch(ctx context.Context, line []byte) []byte {
	start := time.Now()

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return d.finish(ctx, "invalid", start, errResponse(fmt.Sprintf("Invalid request: %v", err)))
	}

	var resp Response
	switch req.Method {
	case MethodRead:
		resp = d.handleRead(req)
	case MethodWrite:
		resp = d.handleWrite(req)
	default:
		resp = errResponse(fmt.Sprintf("Unknown method: %s", req.Method))
	}
	return d.finish(ctx, req.Method, start, resp)
}

func (d *Dispatcher) finish(ctx context.Context, method string, start time.Time, resp Response) []byte {
	status := "ok"
	if resp.Error != "" {
		status = "error"
		d.log.WithContext(ctx).Warn("request failed", "method", method, "error", resp.Error)
	} else {
		d.log.WithContext(ctx).Debug("request served", "method", method)
	}
	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues(method, status).Inc()
		d.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}

	data, err := json.Marshal(resp)
	if err != nil {
		d.log.WithContext(ctx).Error("response encoding failed", "error", err)
		return []byte(`{"jsonrpc":"2.0","error":"Internal error"}`)
	}
	return data
}

// readNames accepts either a single name or a list of names.
func readNames(params json.RawMessage) ([]string, error) {
	if len(params) == 0 {
		return nil, domain.ErrBadRequest.WithDetails("missing params")
	}
	var one string
	if err := json.Unmarshal(params, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(params, &many); err != nil {
		return nil, domain.ErrBadRequest.WithCause(err)
	}
	if len(many) == 0 {
		return nil, domain.ErrBadRequest.WithDetails("empty name list")
	}
	return many, nil
}

func (d *Dispatcher) handleRead(req Request) Response {
	names, err := readNames(req.Params)
	if err != nil {
		return errResponse(fmt.Sprintf("Invalid request: %v", err))
	}

	reads := make([]access.ReadFunc, len(names))
	for i, name := range names {
		e, ok := d.reg.Lookup(name)
		if !ok {
			return errResponse(fmt.Sprintf("Key not found: %s", name))
		}
		if !e.Readable() {
			return errResponse(fmt.Sprintf("Permission denied: %s", name))
		}
		reads[i] = e.Read
	}

	// All reads run in one transaction so the result is a single
	// consistent view, preserving request order in the result object.
	var buf bytes.Buffer
	err = d.root.View(func(tx *store.Tx) error {
		buf.WriteByte('{')
		for i, name := range names {
			val, err := reads[i](tx)
			if err != nil {
				return fmt.Errorf("read of %s failed: %w", name, err)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(name)
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
		return nil
	})
	if err != nil {
		return errResponse(err.Error())
	}
	return okResponse(buf.Bytes())
}

func (d *Dispatcher) handleWrite(req Request) Response {
	if len(req.Params) == 0 {
		return errResponse("Invalid request: missing params")
	}
	var batch map[string]json.RawMessage
	if err := json.Unmarshal(req.Params, &batch); err != nil {
		return errResponse(fmt.Sprintf("Invalid request: %v", err))
	}
	if len(batch) == 0 {
		return errResponse("Invalid request: empty write batch")
	}

	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	sort.Strings(names)

	// Resolve every target before touching the store so an unknown or
	// read only name rejects the batch without side effects.
	writes := make([]access.WriteFunc, len(names))
	for i, name := range names {
		e, ok := d.reg.Lookup(name)
		if !ok {
			return errResponse(fmt.Sprintf("Key not found: %s", name))
		}
		if !e.Writable() {
			return errResponse(fmt.Sprintf("Permission denied: %s", name))
		}
		writes[i] = e.Write
	}

	err := d.root.Update(func(tx *store.Tx) error {
		for i, name := range names {
			if err := writes[i](tx, batch[name]); err != nil {
				return writeError(name, err)
			}
		}
		return nil
	})
	if err != nil {
		return errResponse(err.Error())
	}
	return okResponse(nil)
}

// writeError turns a failed apply into the protocol error message. The
// surrounding transaction has already been rolled back by the caller.
func writeError(name string, err error) error {
	if errors.Is(err, domain.ErrDecode) {
		detail := err
		var de *domain.DomainError
		if errors.As(err, &de) && de.Cause != nil {
			detail = de.Cause
		}
		return fmt.Errorf("Decode failed for %s: %v", name, detail)
	}
	return err
}
