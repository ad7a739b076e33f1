package solver

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"lottawords/internal/puzzle"
)

// ErrSquareFormat is returned by ParseSquare for malformed input.
var ErrSquareFormat = errors.New("invalid square format. Use: top:ABC,right:DEF,bottom:GHI,left:JKL")

// ParseSquare parses "top:ABC,right:DEF,bottom:GHI,left:JKL". Side names are
// case-insensitive and may appear in any order; letters are uppercased.
func ParseSquare(s string) (puzzle.Square, error) {
	var sq puzzle.Square
	seen := make(map[string]bool, puzzle.SideCount)
	for _, part := range strings.Split(s, ",") {
		name, letters, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || strings.Contains(letters, ":") {
			return puzzle.Square{}, ErrSquareFormat
		}
		name = strings.ToLower(strings.TrimSpace(name))
		letters = strings.ToUpper(strings.TrimSpace(letters))
		if letters == "" || seen[name] {
			return puzzle.Square{}, ErrSquareFormat
		}
		seen[name] = true
		switch name {
		case "top":
			sq.Top = letters
		case "right":
			sq.Right = letters
		case "bottom":
			sq.Bottom = letters
		case "left":
			sq.Left = letters
		default:
			return puzzle.Square{}, fmt.Errorf("%w (unknown side %q)", ErrSquareFormat, name)
		}
	}
	if len(seen) != puzzle.SideCount {
		return puzzle.Square{}, ErrSquareFormat
	}
	return sq, nil
}

// LoadWordList reads a newline-delimited word list, skipping blank lines.
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}
	return words, nil
}
