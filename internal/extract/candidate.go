// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Candidate is a partial set of paper attributes recovered by one tier.
// Fenced and bracketed tiers return the decoded JSON objects unchanged, so
// values carry whatever types the model emitted. The accessors below coerce
// them leniently.
type Candidate map[string]any

// String returns the trimmed text value for key. Numbers are formatted;
// other types report false.
func (c Candidate) String(key string) (string, bool) {
	switch v := c[key].(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

// Strings returns a list value for key. A single string is split the way
// the manual tier splits author lines.
func (c Candidate) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return trimAll(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			switch s := e.(type) {
			case string:
				out = append(out, s)
			case map[string]any:
				// {"name": "..."} author objects
				if name, ok := s["name"].(string); ok {
					out = append(out, name)
				}
			case nil:
			default:
				out = append(out, fmt.Sprint(s))
			}
		}
		return trimAll(out)
	case string:
		return SplitAuthors(v)
	default:
		return nil
	}
}

// Year returns a plausible publication year for key. Strings such as
// "2021" or "March 2021" are accepted; anything outside 1900..2099 is not.
func (c Candidate) Year(key string) (int, bool) {
	switch v := c[key].(type) {
	case int:
		return v, PlausibleYear(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		y := int(v)
		return y, PlausibleYear(y)
	case string:
		tok := yearBareRe.FindString(v)
		if tok == "" {
			return 0, false
		}
		y, err := strconv.Atoi(tok)
		if err != nil {
			return 0, false
		}
		return y, true
	default:
		return 0, false
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
