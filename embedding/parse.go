package embedding

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/amonks/galaxy/data"
)

// Parse reads the whitespace-delimited embedding text format: a header line
// (ignored), then one artist per line as "<id> <f0> ... <f(dims-1)>".
//
// A malformed line is a data-integrity failure in the precomputed embedding,
// not a user error, so any wrong arity, unparseable token, or all-zero vector
// fails the whole load. There is no partial store.
func Parse(r io.Reader, dims int) (*Store, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading embedding header: %w", err)
		}
		return nil, fmt.Errorf("embedding source is empty")
	}

	var positions []Position
	lineno := 1
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != dims+1 {
			return nil, fmt.Errorf("embedding line %d has %d fields; expected %d", lineno, len(fields), dims+1)
		}

		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("error parsing id on embedding line %d: %w", lineno, err)
		}

		raw := make(data.Vector, dims)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("error parsing component %d on embedding line %d: %w", i, lineno, err)
			}
			raw[i] = float32(v)
		}
		if raw.Norm() == 0 {
			return nil, fmt.Errorf("embedding line %d is a zero vector", lineno)
		}

		positions = append(positions, Position{
			ID:         uint32(id),
			Raw:        raw,
			Normalized: raw.Normalize(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading embedding source: %w", err)
	}

	return newStore(dims, positions), nil
}
