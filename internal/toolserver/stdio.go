package toolserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// stdioRequest is one line-framed JSON-RPC request: an opaque ID, a tool
// name, and its parameters.
type stdioRequest struct {
	ID     json.RawMessage `json:"id"`
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
}

// stdioResponse echoes the request ID alongside either a result or an
// error, never both.
type stdioResponse struct {
	ID     json.RawMessage `json:"id"`
	Result interface{}     `json:"result,omitempty"`
	Error  *ToolError      `json:"error,omitempty"`
}

// ServeStdio reads one JSON request per line from r and writes one JSON
// response per line to w, until r is exhausted. A malformed line produces
// an error response with a null ID rather than terminating the loop.
func (s *Server) ServeStdio(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req stdioRequest
		if err := json.Unmarshal(line, &req); err != nil {
			if encErr := encoder.Encode(stdioResponse{Error: preconditionError(fmt.Errorf("malformed request: %w", err))}); encErr != nil {
				return encErr
			}
			continue
		}

		result, toolErr := s.Dispatch(req.Tool, req.Params)
		if err := encoder.Encode(stdioResponse{ID: req.ID, Result: result, Error: toolErr}); err != nil {
			return err
		}
	}
	return scanner.Err()
}
