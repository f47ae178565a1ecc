package dispatch

import "encoding/json"

const jsonrpcVersion = "2.0"

// Method names accepted on the wire.
const (
	MethodRead  = "r"
	MethodWrite = "w"
)

// Request is one client command. For reads Params is a name or a list of
// names; for writes it is an object mapping names to values.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the reply to a Request. A successful write carries neither
// Result nor Error, so the acknowledgement serializes as {"jsonrpc":"2.0"}.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Report is a server initiated notification. Unlike a Response it names the
// event that produced it. No current code path emits one; the shape is fixed
// here so clients can already dispatch on it.
type Report struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func okResponse(result json.RawMessage) Response {
	return Response{JSONRPC: jsonrpcVersion, Result: result}
}

func errResponse(msg string) Response {
	return Response{JSONRPC: jsonrpcVersion, Error: msg}
}
