// Package solver finds short word chains that solve a Letter Boxed square.
//
// Rules, all case-insensitive:
//   - every letter of a word must be on the square;
//   - consecutive letters of a word sit on different sides;
//   - letters may be reused;
//   - each word of a chain starts with the last letter of the previous word;
//   - a solution uses every letter on the square.
package solver

import (
	"math/bits"
	"strings"
	"unicode"

	"lottawords/internal/puzzle"
)

// Board is a normalized square: lowercase letters, each tagged with its side
// and a bit position used for coverage masks.
type Board struct {
	side  map[rune]int
	bit   map[rune]uint
	full  uint64
	count int
}

// Normalize lowercases the square and indexes its letters.
func Normalize(sq puzzle.Square) Board {
	b := Board{side: sq.Letters(), bit: make(map[rune]uint)}
	// Bits follow side order so masks are stable for a given square.
	for _, s := range sq.Sides() {
		for _, r := range strings.ToLower(s) {
			if _, ok := b.side[r]; !ok {
				continue
			}
			if _, seen := b.bit[r]; seen {
				continue
			}
			if len(b.bit) == 64 {
				break
			}
			b.bit[r] = uint(len(b.bit))
		}
	}
	b.count = len(b.bit)
	if b.count == 64 {
		b.full = ^uint64(0)
	} else {
		b.full = (uint64(1) << uint(b.count)) - 1
	}
	return b
}

// Size is the number of distinct letters on the board.
func (b Board) Size() int { return b.count }

// IsValidWord reports whether word can be played on the board.
func (b Board) IsValidWord(word string) bool {
	_, ok := b.mask(word)
	return ok
}

// mask returns the letter mask of a playable word.
func (b Board) mask(word string) (uint64, bool) {
	if word == "" {
		return 0, false
	}
	var m uint64
	prev := -1
	for _, r := range word {
		r = unicode.ToLower(r)
		s, ok := b.side[r]
		if !ok {
			return 0, false
		}
		if s == prev {
			return 0, false
		}
		prev = s
		m |= 1 << b.bit[r]
	}
	return m, true
}

// CoversAllLetters reports whether used contains every letter of the board.
// used may be in any order and case.
func (b Board) CoversAllLetters(used string) bool {
	var m uint64
	for _, r := range used {
		if i, ok := b.bit[unicode.ToLower(r)]; ok {
			m |= 1 << i
		}
	}
	return m == b.full
}

// WordPriority counts the distinct letters of word not present in used.
func WordPriority(word, used string) int {
	have := make(map[rune]struct{}, len(used))
	for _, r := range strings.ToLower(used) {
		have[r] = struct{}{}
	}
	fresh := make(map[rune]struct{})
	for _, r := range strings.ToLower(word) {
		if _, ok := have[r]; !ok {
			fresh[r] = struct{}{}
		}
	}
	return len(fresh)
}

// distinct counts the distinct runes of s.
func distinct(s string) int {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func popcount(m uint64) int { return bits.OnesCount64(m) }
