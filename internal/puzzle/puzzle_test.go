package puzzle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquareFromSides(t *testing.T) {
	sq, err := SquareFromSides([]string{"ABC", "DEF", "GHI", "JKL"})
	require.NoError(t, err)
	assert.Equal(t, Square{Top: "ABC", Right: "DEF", Bottom: "GHI", Left: "JKL"}, sq)
	assert.Equal(t, []string{"ABC", "DEF", "GHI", "JKL"}, sq.Sides())

	_, err = SquareFromSides([]string{"ABC", "DEF"})
	assert.ErrorIs(t, err, ErrInvalidSides)
	_, err = SquareFromSides(nil)
	assert.ErrorIs(t, err, ErrInvalidSides)
}

func TestSquareLetters(t *testing.T) {
	sq := Square{Top: "AbC", Right: "DEF", Bottom: "GHI", Left: "JKL"}
	letters := sq.Letters()
	assert.Len(t, letters, 12)
	assert.Equal(t, 0, letters['b'])
	assert.Equal(t, 3, letters['l'])
	_, ok := letters['B']
	assert.False(t, ok, "letters are lowercased")
}

func TestSquareString(t *testing.T) {
	sq := Square{Top: "abc", Right: "def", Bottom: "ghi", Left: "jkl"}
	assert.Equal(t, "top:ABC,right:DEF,bottom:GHI,left:JKL", sq.String())
	assert.True(t, Square{}.IsZero())
	assert.False(t, sq.IsZero())
}

func TestDataJSON(t *testing.T) {
	t.Run("success payload", func(t *testing.T) {
		d := Data{Square: Square{Top: "ABC", Right: "DEF", Bottom: "GHI", Left: "JKL"}, LottaSolution: []string{"x"}}
		raw, err := json.Marshal(d)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"square": {"top":"ABC","right":"DEF","bottom":"GHI","left":"JKL"},
			"nyt_solution": [],
			"lotta_solution": ["x"],
			"error": null
		}`, string(raw))
		assert.True(t, d.OK())
	})

	t.Run("error payload", func(t *testing.T) {
		d := Failed("boom")
		raw, err := json.Marshal(d)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"boom"}`, string(raw))
		assert.False(t, d.OK())
		assert.Equal(t, "boom", d.Err())
	})

	t.Run("entry decodes", func(t *testing.T) {
		var e Entry
		err := json.Unmarshal([]byte(`{"puzzle_data":{"square":{"top":"ABC"},"nyt_solution":["A"],"lotta_solution":[],"error":null},"last_updated":"2025-03-01T08:10:00Z"}`), &e)
		require.NoError(t, err)
		assert.Equal(t, "ABC", e.Data.Square.Top)
		assert.Equal(t, []string{"A"}, e.Data.NYTSolution)
		assert.Nil(t, e.Data.Error)
		assert.Equal(t, 2025, e.LastUpdated.Year())
	})
}
