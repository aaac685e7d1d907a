// Package kvconfig parses the "key = v1 v2 ..." build-config text files
// CASC stores alongside its data blobs.
package kvconfig

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Config is a parsed key-value config file. Each key maps to a
// whitespace-tokenized list of values.
type Config map[string][]string

// Get returns the first value stored for key, or "" if the key is absent or
// has no values.
func (c Config) Get(key string) string {
	vs := c[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns the full token list stored for key.
func (c Config) Values(key string) []string {
	return c[key]
}

// Parse reads a key-value config from r. Blank lines and lines starting
// with '#' are skipped. Every remaining line must split into exactly two
// '='-separated fields or parsing fails.
func Parse(r io.Reader) (Config, error) {
	cfg := make(Config)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "=")
		if len(fields) != 2 {
			return nil, fmt.Errorf("kvconfig: line %d: expected exactly one '=': %q", lineNo, line)
		}
		key := strings.TrimSpace(fields[0])
		value := strings.TrimSpace(fields[1])
		cfg[key] = strings.Fields(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("kvconfig: %w", err)
	}
	return cfg, nil
}
