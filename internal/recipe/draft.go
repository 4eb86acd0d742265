package recipe

import (
	"encoding/json"
	"strings"
)

// Draft is the JSON shape the model is constrained to produce.
type Draft struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// IsEmpty reports whether no field has been filled in yet.
func (d Draft) IsEmpty() bool {
	return d.Title == "" && d.Description == "" && len(d.Ingredients) == 0 && len(d.Instructions) == 0
}

// ParseDraft strictly decodes a complete buffer. An empty buffer decodes as {}.
func ParseDraft(buffer string) (Draft, error) {
	buffer = strings.TrimSpace(buffer)
	if buffer == "" {
		buffer = "{}"
	}
	var d Draft
	if err := json.Unmarshal([]byte(buffer), &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// maxRepairAttempts bounds how far back TryParsePartial cuts a buffer.
const maxRepairAttempts = 64

// TryParsePartial parses a possibly incomplete streaming buffer for display.
// It closes any open string, array and object, cutting back to earlier
// element boundaries when the tail is unusable. It never fails: nil means
// "not enough data yet".
func TryParsePartial(buffer string) *Draft {
	buffer = strings.TrimSpace(buffer)
	if buffer == "" {
		return nil
	}
	if d, err := ParseDraft(buffer); err == nil {
		return nonEmpty(d)
	}

	cuts := boundaries(buffer)
	for attempt := 0; attempt <= maxRepairAttempts && attempt <= len(cuts); attempt++ {
		prefix := buffer
		if attempt > 0 {
			prefix = buffer[:cuts[len(cuts)-attempt]]
		}
		candidate := closeOpen(prefix)
		if !json.Valid([]byte(candidate)) {
			continue
		}
		var d Draft
		if err := json.Unmarshal([]byte(candidate), &d); err != nil {
			// Valid JSON of the wrong shape (e.g. a number where a list
			// belongs); nothing earlier will fix that.
			return nil
		}
		return nonEmpty(d)
	}
	return nil
}

func nonEmpty(d Draft) *Draft {
	if d.IsEmpty() {
		return nil
	}
	return &d
}

// boundaries lists byte offsets, outside strings, where a prefix can be cut:
// just before a comma and just after an opening bracket.
func boundaries(s string) []int {
	var cuts []int
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			cuts = append(cuts, i)
		case '{', '[':
			cuts = append(cuts, i+1)
		}
	}
	return cuts
}

// closeOpen appends whatever quotes and brackets prefix leaves open.
func closeOpen(prefix string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(prefix)
	if inString {
		if escaped {
			s := b.String()
			b.Reset()
			b.WriteString(s[:len(s)-1])
		}
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
