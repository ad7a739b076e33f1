package solver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottawords/internal/puzzle"
)

var testSquare = puzzle.Square{Top: "ABC", Right: "DEF", Bottom: "GHI", Left: "JKL"}

func TestIsValidWord(t *testing.T) {
	b := Normalize(testSquare)
	assert.Equal(t, 12, b.Size())

	tests := []struct {
		word string
		want bool
	}{
		{"adgj", true},
		{"ADGJ", true},
		{"adgjbehk", true},
		{"ada", true},  // reuse across non-adjacent positions
		{"abj", false}, // a and b share a side
		{"az", false},  // z is not on the square
		{"", false},
		{"jj", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.IsValidWord(tt.word), tt.word)
	}
}

func TestCoversAllLetters(t *testing.T) {
	b := Normalize(testSquare)
	assert.True(t, b.CoversAllLetters("abcdefghijkl"))
	assert.True(t, b.CoversAllLetters("LKJIHGFEDCBA"))
	assert.False(t, b.CoversAllLetters("abcdefghijk"))
	assert.True(t, b.CoversAllLetters("abcdefghijklxyz"), "extra letters are ignored")
}

func TestWordPriority(t *testing.T) {
	assert.Equal(t, 2, WordPriority("hello", "he"))
	assert.Equal(t, 0, WordPriority("abc", "cba"))
	assert.Equal(t, 3, WordPriority("abc", ""))
}

func TestFindShortestSolution(t *testing.T) {
	tests := []struct {
		name string
		dict []string
		want []string
	}{
		{
			name: "three word chain",
			dict: []string{"ADGJ", "JBEHK", "KCFIL"},
			want: []string{"ADGJ", "JBEHK", "KCFIL"},
		},
		{
			name: "prefers two words",
			dict: []string{"ADGJ", "JBEHK", "KCFIL", "ADGJBEHK"},
			want: []string{"ADGJBEHK", "KCFIL"},
		},
		{
			name: "keeps dictionary casing",
			dict: []string{"AdGj", "jBeHk", "KcFiL"},
			want: []string{"AdGj", "jBeHk", "KcFiL"},
		},
		{
			name: "falls back to widest single word",
			dict: []string{"ADGJ", "JBEHK"},
			want: []string{"JBEHK"},
		},
		{
			name: "ignores unplayable words",
			dict: []string{"ABJ", "", "AZ", "ADGJ", "JBEHK", "KCFIL"},
			want: []string{"ADGJ", "JBEHK", "KCFIL"},
		},
		{
			name: "empty dictionary",
			dict: nil,
			want: []string{},
		},
		{
			name: "nothing playable",
			dict: []string{"ABJ", "XYZ"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindShortestSolution(testSquare, tt.dict)
			require.NotNil(t, got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindShortestSolution() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSolveRespectsMaxChain(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxChain = 2
	res := opts.Solve(testSquare, []string{"ADGJ", "JBEHK", "KCFIL"})
	assert.False(t, res.Complete)
	assert.Equal(t, []string{"KCFIL"}, res.Words)
	assert.Equal(t, 3, res.Playable)
}

func TestSolveRespectsIterationLimit(t *testing.T) {
	opts := Options{MaxIterations: 1}
	res := opts.Solve(testSquare, []string{"ADGJ", "JBEHK", "KCFIL"})
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Complete)
}

func TestSolutionIsChained(t *testing.T) {
	dict := []string{"ADGJ", "JBEHK", "KCFIL", "ADGJBEHK", "LAD", "DAL", "JAD", "KAL"}
	res := DefaultOptions().Solve(testSquare, dict)
	require.True(t, res.Complete)

	b := Normalize(testSquare)
	for i, w := range res.Words {
		assert.True(t, b.IsValidWord(w), w)
		if i > 0 {
			prev := strings.ToLower(res.Words[i-1])
			assert.Equal(t, prev[len(prev)-1], strings.ToLower(w)[0])
		}
	}
	assert.True(t, b.CoversAllLetters(strings.Join(res.Words, "")))
}

func TestParseSquare(t *testing.T) {
	sq, err := ParseSquare("top:abc,right:DEF, bottom:ghi,left:JKL")
	require.NoError(t, err)
	assert.Equal(t, puzzle.Square{Top: "ABC", Right: "DEF", Bottom: "GHI", Left: "JKL"}, sq)

	sq, err = ParseSquare("left:JKL,bottom:GHI,right:DEF,top:ABC")
	require.NoError(t, err)
	assert.Equal(t, "ABC", sq.Top)

	for _, bad := range []string{
		"",
		"top:ABC",
		"top:ABC,right:DEF,bottom:GHI",
		"top:ABC,right:DEF,bottom:GHI,middle:JKL",
		"top:ABC,top:DEF,bottom:GHI,left:JKL",
		"top=ABC,right:DEF,bottom:GHI,left:JKL",
		"top:ABC,right:DEF,bottom:GHI,left:",
	} {
		_, err := ParseSquare(bad)
		assert.ErrorIs(t, err, ErrSquareFormat, bad)
	}
}

func TestLoadWordList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("adgj\n\n  jbehk \nkcfil\n"), 0o644))

	words, err := LoadWordList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"adgj", "jbehk", "kcfil"}, words)

	_, err = LoadWordList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
