package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"lottawords/internal/solver"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	indexStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	wordStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

func runSolve(cmd *cobra.Command, args []string) error {
	sq, err := solver.ParseSquare(squareFlag)
	if err != nil {
		return err
	}

	words, err := solver.LoadWordList(wordlistFlag)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("word list file '%s' not found", wordlistFlag)
	}
	if err != nil {
		return err
	}

	res := solverOptions(cfg).Solve(sq, words)
	fmt.Fprint(cmd.OutOrStdout(), renderSolution(res))
	return nil
}

func renderSolution(res solver.Result) string {
	var sb strings.Builder
	if len(res.Words) == 0 {
		sb.WriteString("\n" + titleStyle.Render("No solution found!") + "\n")
		return sb.String()
	}

	sb.WriteString("\n" + titleStyle.Render("Found solution:") + "\n")
	for i, w := range res.Words {
		sb.WriteString(indexStyle.Render(fmt.Sprintf("%d.", i+1)) + " " + wordStyle.Render(w) + "\n")
	}
	sb.WriteString(fmt.Sprintf("\nTotal words: %d\n", len(res.Words)))
	if !res.Complete {
		sb.WriteString(mutedStyle.Render("(partial: no chain covers every letter)") + "\n")
	}
	return sb.String()
}
