package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-sod/perfml/internal/dispatcher"
)

// readRequest takes the request from a non-interactive, non-empty stdin, and
// otherwise builds it from the arguments: <action> [dataset_path]. With
// neither it returns nil, which the dispatcher answers as status.
func readRequest(in io.Reader, interactive bool, args []string) ([]byte, error) {
	if !interactive && in != nil {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read request: %w", err)
		}
		if len(bytes.TrimSpace(data)) > 0 {
			return data, nil
		}
	}
	if len(args) == 0 {
		return nil, nil
	}

	req := dispatcher.Request{Action: args[0]}
	if len(args) > 1 {
		req.DatasetPath = args[1]
	}
	return json.Marshal(req)
}
