package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"lottawords/internal/puzzle"
)

// dictionaryMinLen is how long an unnamed array must be before it is taken
// for the word list.
const dictionaryMinLen = 100

// gameData is window.gameData with its keys in document order.
type gameData struct {
	keys   []string
	values map[string]json.RawMessage
}

// parseGameData decodes a JSON object, remembering key order.
func parseGameData(data []byte) (*gameData, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode game data: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decode game data: expected object, got %v", tok)
	}

	gd := &gameData{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode game data: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode game data: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode game data %q: %w", key, err)
		}
		if _, dup := gd.values[key]; !dup {
			gd.keys = append(gd.keys, key)
		}
		gd.values[key] = raw
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode game data: %w", err)
	}
	return gd, nil
}

// Raw extracts sides, the published solution and the dictionary.
func (gd *gameData) Raw() puzzle.Raw {
	return puzzle.Raw{
		Sides:      stringList(gd.values["sides"]),
		Solution:   stringList(gd.values["ourSolution"]),
		Dictionary: gd.dictionary(),
	}
}

// dictionary looks for the word list under "dictionary", then "validWords",
// then the first array longer than dictionaryMinLen.
func (gd *gameData) dictionary() []string {
	if raw, ok := gd.values["dictionary"]; ok {
		return stringList(raw)
	}
	if raw, ok := gd.values["validWords"]; ok {
		return stringList(raw)
	}
	for _, key := range gd.keys {
		var arr []json.RawMessage
		if err := json.Unmarshal(gd.values[key], &arr); err != nil {
			continue
		}
		if len(arr) > dictionaryMinLen {
			return stringList(gd.values[key])
		}
	}
	return nil
}

// stringList decodes a JSON array. Non-string elements are rendered as null
// "None", booleans "True"/"False", and numbers or nested values as their
// JSON text.
// Anything that is not an array yields nil.
func stringList(raw json.RawMessage) []string {
	var arr []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &arr) != nil || arr == nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		out = append(out, stringify(el))
	}
	return out
}

func stringify(el json.RawMessage) string {
	text := strings.TrimSpace(string(el))
	switch text {
	case "null":
		return "None"
	case "true":
		return "True"
	case "false":
		return "False"
	}
	var s string
	if json.Unmarshal(el, &s) == nil {
		return s
	}
	return text
}
