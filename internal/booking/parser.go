package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// structuredBlock matches a ```json fenced block. Only the first match is used.
var structuredBlock = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")

// Parsed is the outcome of reading one model reply.
type Parsed struct {
	// DisplayText is what the user should see.
	DisplayText string
	// Booking is nil when the reply carried no usable structured block.
	Booking *Record
	// Err explains why a block that was present could not be used.
	Err error
}

// ParseReply extracts an optional booking from a model reply. It never fails:
// an unusable block leaves the reply untouched and sets Parsed.Err.
func ParseReply(raw string) Parsed {
	loc := structuredBlock.FindStringSubmatchIndex(raw)
	if loc == nil {
		return Parsed{DisplayText: raw}
	}

	body := raw[loc[2]:loc[3]]
	record, err := decodeRecord(body)
	if err != nil {
		return Parsed{DisplayText: raw, Err: err}
	}

	display := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	return Parsed{DisplayText: display, Booking: record}
}

func decodeRecord(body string) (*Record, error) {
	trimmed := bytes.TrimSpace([]byte(body))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedBlock)
	}

	var record Record
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	// The ledger owns the timestamp.
	record.RecordedAt = ""
	return &record, nil
}
