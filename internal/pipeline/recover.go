package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("(?is)```json\\s*(\\{.*?\\})\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
)

// recoverObject pulls the first parseable JSON object out of a model
// reply. It tries ```json fences, then anonymous fences, then the
// outermost brace span. ok is false when nothing parses.
func recoverObject(text string) (map[string]any, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, false
	}

	for _, m := range fencedJSONRe.FindAllStringSubmatch(t, -1) {
		if obj, err := decodeObject(m[1]); err == nil {
			return obj, true
		}
	}

	for _, m := range fencedAnyRe.FindAllStringSubmatch(t, -1) {
		if obj, err := decodeObject(m[1]); err == nil {
			return obj, true
		}
	}

	i := strings.Index(t, "{")
	j := strings.LastIndex(t, "}")
	if i >= 0 && j > i {
		if obj, err := decodeObject(t[i : j+1]); err == nil {
			return obj, true
		}
	}

	return nil, false
}

// decodeObject parses one JSON object. Numbers stay json.Number so
// values like 120.00 keep their written form through coercion.
func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}
