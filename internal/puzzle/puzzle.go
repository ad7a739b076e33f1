// Package puzzle defines the Letter Boxed data model shared by the scraper,
// solver, cache and HTTP layers.
package puzzle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// SideCount is the number of sides on a Letter Boxed square.
const SideCount = 4

// ErrInvalidSides is returned when the scraped sides do not form a square.
var ErrInvalidSides = errors.New("invalid sides data")

// Square holds the letters on each side of the box.
type Square struct {
	Top    string `json:"top"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Left   string `json:"left"`
}

// SquareFromSides builds a Square from sides ordered top, right, bottom, left.
func SquareFromSides(sides []string) (Square, error) {
	if len(sides) != SideCount {
		return Square{}, fmt.Errorf("%w: expected %d sides, got %d", ErrInvalidSides, SideCount, len(sides))
	}
	return Square{Top: sides[0], Right: sides[1], Bottom: sides[2], Left: sides[3]}, nil
}

// Sides returns the sides in top, right, bottom, left order.
func (s Square) Sides() []string {
	return []string{s.Top, s.Right, s.Bottom, s.Left}
}

// IsZero reports whether no side carries letters.
func (s Square) IsZero() bool {
	return s.Top == "" && s.Right == "" && s.Bottom == "" && s.Left == ""
}

// Letters maps each lowercase letter to the index of the side it sits on.
// A letter listed on several sides keeps the last side.
func (s Square) Letters() map[rune]int {
	out := make(map[rune]int, 12)
	for i, side := range s.Sides() {
		for _, r := range side {
			if unicode.IsSpace(r) {
				continue
			}
			out[unicode.ToLower(r)] = i
		}
	}
	return out
}

// String renders the square as "top:ABC,right:DEF,bottom:GHI,left:JKL".
func (s Square) String() string {
	return fmt.Sprintf("top:%s,right:%s,bottom:%s,left:%s",
		strings.ToUpper(s.Top), strings.ToUpper(s.Right), strings.ToUpper(s.Bottom), strings.ToUpper(s.Left))
}

// Data is the payload served by the puzzle endpoint and stored in the cache.
type Data struct {
	Square        Square   `json:"square"`
	NYTSolution   []string `json:"nyt_solution"`
	LottaSolution []string `json:"lotta_solution"`
	Error         *string  `json:"error"`
}

// Failed builds a Data payload that only carries an error message.
func Failed(msg string) Data {
	return Data{Error: &msg}
}

// Err returns the error message, or "" when the payload is good.
func (d Data) Err() string {
	if d.Error == nil {
		return ""
	}
	return *d.Error
}

// OK reports whether the payload carries a solved puzzle.
func (d Data) OK() bool {
	return d.Error == nil
}

// MarshalJSON emits only the error field for failed payloads so clients can
// branch on the presence of "square".
func (d Data) MarshalJSON() ([]byte, error) {
	if d.Error != nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{*d.Error})
	}
	type plain Data
	p := plain(d)
	if p.NYTSolution == nil {
		p.NYTSolution = []string{}
	}
	if p.LottaSolution == nil {
		p.LottaSolution = []string{}
	}
	return json.Marshal(p)
}

// Entry is a cached Data payload stamped with the time it was produced.
type Entry struct {
	Data        Data      `json:"puzzle_data"`
	LastUpdated time.Time `json:"last_updated"`
}

// Raw is the unsolved puzzle as read from the NYT page.
type Raw struct {
	Sides      []string
	Solution   []string
	Dictionary []string
}
