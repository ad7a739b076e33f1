package solver

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/sets/hashset"
	"go.uber.org/zap"

	"lottawords/internal/logging"
	"lottawords/internal/puzzle"
)

// Options bounds the chain search.
type Options struct {
	MaxChain      int // longest chain explored
	MaxIterations int // queue pops before giving up
	FirstBranch   int // successors kept after the first word
	Branch        int // successors kept deeper in the chain
}

// DefaultOptions returns the limits used by the service.
func DefaultOptions() Options {
	return Options{
		MaxChain:      5,
		MaxIterations: 100000,
		FirstBranch:   25,
		Branch:        15,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxChain <= 0 {
		o.MaxChain = d.MaxChain
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.FirstBranch <= 0 {
		o.FirstBranch = d.FirstBranch
	}
	if o.Branch <= 0 {
		o.Branch = d.Branch
	}
	return o
}

// Result describes a finished search.
type Result struct {
	Words      []string
	Complete   bool // Words uses every letter of the board
	Iterations int
	Playable   int
}

type node struct {
	words []string
	mask  uint64
}

// FindShortestSolution solves sq with DefaultOptions. The result is never nil.
func FindShortestSolution(sq puzzle.Square, dictionary []string) []string {
	return DefaultOptions().Solve(sq, dictionary).Words
}

// Solve runs a breadth-first search over word chains drawn from dictionary.
//
// When no chain covers the board within the limits, the single playable word
// covering the most letters is returned. The result is never nil.
func (o Options) Solve(sq puzzle.Square, dictionary []string) Result {
	o = o.withDefaults()
	log := logging.Get(logging.CategorySolver)
	timer := logging.StartTimer(logging.CategorySolver, "solve")
	defer timer.Stop()

	res := Result{Words: []string{}}
	if len(dictionary) == 0 {
		return res
	}

	board := Normalize(sq)
	original := make(map[string]string)
	masks := make(map[string]uint64)
	var playable []string
	for _, w := range dictionary {
		if w == "" {
			continue
		}
		lw := strings.ToLower(w)
		m, ok := board.mask(lw)
		if !ok {
			continue
		}
		playable = append(playable, lw)
		original[lw] = w
		masks[lw] = m
	}
	res.Playable = len(playable)
	if len(playable) == 0 {
		return res
	}

	// Shorter words first; among equals, more distinct letters first.
	sort.SliceStable(playable, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(playable[i]), utf8.RuneCountInString(playable[j])
		if li != lj {
			return li < lj
		}
		return distinct(playable[i]) > distinct(playable[j])
	})

	byFirst := make(map[rune][]string)
	for _, w := range playable {
		r, _ := utf8.DecodeRuneInString(w)
		byFirst[r] = append(byFirst[r], w)
	}

	queue := linkedlistqueue.New()
	for _, w := range playable {
		queue.Enqueue(node{words: []string{w}, mask: masks[w]})
	}

	visited := hashset.New()
	var best []string

	for !queue.Empty() && res.Iterations < o.MaxIterations {
		res.Iterations++
		v, _ := queue.Dequeue()
		cur := v.(node)

		if best != nil && len(cur.words) >= len(best) {
			continue
		}

		key := strings.Join(cur.words, " ") + "|" + strconv.FormatUint(cur.mask, 16)
		if visited.Contains(key) {
			continue
		}
		visited.Add(key)

		if cur.mask == board.full {
			best = cur.words
			if len(best) <= 2 {
				break
			}
			continue
		}

		if len(cur.words) >= o.MaxChain {
			continue
		}

		last := cur.words[len(cur.words)-1]
		tail, _ := utf8.DecodeLastRuneInString(last)

		type candidate struct {
			word  string
			fresh int
		}
		next := byFirst[tail]
		ranked := make([]candidate, 0, len(next))
		for _, w := range next {
			ranked = append(ranked, candidate{word: w, fresh: popcount(masks[w] &^ cur.mask)})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].fresh != ranked[j].fresh {
				return ranked[i].fresh > ranked[j].fresh
			}
			return utf8.RuneCountInString(ranked[i].word) < utf8.RuneCountInString(ranked[j].word)
		})

		limit := o.Branch
		if len(cur.words) == 1 {
			limit = o.FirstBranch
		}
		if limit > len(ranked) {
			limit = len(ranked)
		}
		for _, c := range ranked[:limit] {
			words := make([]string, len(cur.words), len(cur.words)+1)
			copy(words, cur.words)
			queue.Enqueue(node{words: append(words, c.word), mask: cur.mask | masks[c.word]})
		}
	}

	if best != nil {
		res.Complete = true
		res.Words = restoreCase(best, original)
	} else {
		res.Words = restoreCase([]string{bestSingle(playable, masks)}, original)
	}

	log.Debug("search finished",
		zap.Int("playable", res.Playable),
		zap.Int("iterations", res.Iterations),
		zap.Bool("complete", res.Complete),
		zap.Strings("words", res.Words))
	return res
}

// bestSingle picks the playable word covering the most board letters,
// preferring shorter words on ties and later words among exact ties.
func bestSingle(playable []string, masks map[string]uint64) string {
	var best string
	bestCov, bestLen := -1, 0
	for _, w := range playable {
		cov, n := popcount(masks[w]), utf8.RuneCountInString(w)
		if cov > bestCov || (cov == bestCov && n <= bestLen) {
			best, bestCov, bestLen = w, cov, n
		}
	}
	return best
}

func restoreCase(words []string, original map[string]string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		if o, ok := original[w]; ok {
			out[i] = o
		} else {
			out[i] = w
		}
	}
	return out
}
