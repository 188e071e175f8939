package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/learnflex/learnflex-api/internal/redact"
)

const maxLineBytes = 1 << 20

// redactStream copies in to out line by line with secrets replaced. It
// returns the number of lines written.
func redactStream(in io.Reader, out io.Writer, jsonOnly bool) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	w := bufio.NewWriter(out)

	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		if jsonOnly {
			line = redactJSONLine(line)
		} else {
			line = redact.String(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return n, err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}
	return n, w.Flush()
}

// redactJSONLine redacts every string value of a JSON object line. Lines
// that are not JSON objects are redacted whole.
func redactJSONLine(line string) string {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return redact.String(line)
	}
	for k, v := range record {
		record[k] = redactValue(v)
	}
	b, err := json.Marshal(record)
	if err != nil {
		return redact.String(line)
	}
	return string(b)
}

func redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return redact.String(val)
	case map[string]any:
		for k, inner := range val {
			val[k] = redactValue(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = redactValue(inner)
		}
		return val
	default:
		return v
	}
}
