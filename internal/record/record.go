// Package record defines the credential record model and the line format
// parser for SMTP credential list files.
package record

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Record holds one set of SMTP credentials read from an input line in the
// form "host|username|password|from". The password may itself contain '|'
// characters; the last field is always the from-address.
type Record struct {
	Host     string
	Username string
	Password string
	From     string

	// Raw is the original input line, carried through to the report files.
	Raw string
}

// ErrUnparsable is returned by Parse for lines that do not yield a complete
// four-field record.
type ErrUnparsable struct {
	Line   string
	Reason string
}

func (e *ErrUnparsable) Error() string {
	return fmt.Sprintf("unparsable record line: %s", e.Reason)
}

// Parse parses a single input line into a Record. Fields are separated by
// '|'. Lines with more than three separators keep the first two fields as
// host/username and the last as from-address; everything in between is
// rejoined (with '|') into the password. Individual segments are trimmed of
// surrounding whitespace.
func Parse(line string) (Record, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return Record{}, &ErrUnparsable{Line: line, Reason: "empty line"}
	}
	if strings.HasPrefix(s, "#") {
		return Record{}, &ErrUnparsable{Line: line, Reason: "comment line"}
	}

	parts := strings.Split(s, "|")
	if len(parts) < 4 {
		return Record{}, &ErrUnparsable{Line: line, Reason: fmt.Sprintf("expected 4 fields, got %d", len(parts))}
	}

	passParts := make([]string, 0, len(parts)-3)
	for _, p := range parts[2 : len(parts)-1] {
		passParts = append(passParts, strings.TrimSpace(p))
	}

	rec := Record{
		Host:     strings.TrimSpace(parts[0]),
		Username: strings.TrimSpace(parts[1]),
		Password: strings.Join(passParts, "|"),
		From:     strings.TrimSpace(parts[len(parts)-1]),
		Raw:      s,
	}

	if rec.Host == "" || rec.Username == "" || rec.From == "" {
		return Record{}, &ErrUnparsable{Line: line, Reason: "host, username and from-address must not be empty"}
	}

	return rec, nil
}

// ReadFile reads an input file and returns the parsed records along with the
// number of non-empty lines that could not be parsed. Empty lines are
// ignored entirely and count neither as records nor as skips.
func ReadFile(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var (
		records []Record
		skipped int
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := Parse(line)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read input file: %w", err)
	}

	return records, skipped, nil
}
