package main

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mielalabs/mpl-magick/mpl"
)

type lintWarning struct {
	Pos     mpl.Position
	Message string
}

func newCheckCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Report parse errors and suspicious statements without running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			source, err := readSource(path)
			if err != nil {
				return err
			}

			stmts, errs := mpl.ParseSource(source)
			for _, err := range errs {
				pos, msg := errorLocation(err)
				fmt.Fprintf(c.stdout, "%s:%d:%d: %s\n", path, max(pos.Line, 1), max(pos.Column, 1), msg)
			}
			warnings := analyzeStatements(stmts)
			for _, w := range warnings {
				fmt.Fprintf(c.stdout, "%s:%d:%d: %s\n", path, max(w.Pos.Line, 1), max(w.Pos.Column, 1), w.Message)
			}

			if len(errs) == 0 && len(warnings) == 0 {
				fmt.Fprintln(c.stdout, "No issues found")
				return nil
			}
			return fmt.Errorf("check found %d error(s) and %d warning(s)", len(errs), len(warnings))
		},
	}
}

func errorLocation(err error) (mpl.Position, string) {
	var (
		scanErr  *mpl.ScanError
		parseErr *mpl.ParseError
	)
	switch {
	case errors.As(err, &scanErr):
		return scanErr.Pos, scanErr.Message
	case errors.As(err, &parseErr):
		return parseErr.Pos, parseErr.Message
	default:
		return mpl.Position{}, err.Error()
	}
}

func analyzeStatements(stmts []mpl.Statement) []lintWarning {
	warnings := make([]lintWarning, 0)
	lintStatements(stmts, &warnings)
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Pos.Line != warnings[j].Pos.Line {
			return warnings[i].Pos.Line < warnings[j].Pos.Line
		}
		return warnings[i].Pos.Column < warnings[j].Pos.Column
	})
	return warnings
}

func lintStatements(statements []mpl.Statement, warnings *[]lintWarning) bool {
	terminated := false
	for _, stmt := range statements {
		if stmt == nil {
			continue
		}
		if terminated {
			*warnings = append(*warnings, lintWarning{
				Pos:     stmt.Pos(),
				Message: "unreachable statement",
			})
			continue
		}
		if statementTerminates(stmt, warnings) {
			terminated = true
		}
	}
	return terminated
}

// statementTerminates reports whether stmt always descends into the abyss.
func statementTerminates(stmt mpl.Statement, warnings *[]lintWarning) bool {
	switch typed := stmt.(type) {
	case *mpl.AbyssStmt:
		return true
	case *mpl.BlockStmt:
		return lintStatements(typed.Statements, warnings)
	case *mpl.CircleStmt:
		if typed.Body != nil {
			statementTerminates(typed.Body, warnings)
		}
		return false
	case *mpl.CycleStmt:
		if n, ok := literalMana(typed.Frequency); ok && n <= 0 {
			*warnings = append(*warnings, lintWarning{
				Pos:     typed.Pos(),
				Message: fmt.Sprintf("cycle of %d never runs", n),
			})
		}
		if typed.Body != nil {
			statementTerminates(typed.Body, warnings)
		}
		return false
	case *mpl.IfStmt:
		thenTerminated := typed.Then != nil && statementTerminates(typed.Then, warnings)
		if typed.Else == nil {
			return false
		}
		elseTerminated := statementTerminates(typed.Else, warnings)
		return thenTerminated && elseTerminated
	default:
		return false
	}
}

// literalMana folds a Mana literal, possibly grouped or negated.
func literalMana(expr mpl.Expression) (int64, bool) {
	switch typed := expr.(type) {
	case *mpl.Literal:
		if typed.Value.Kind() == mpl.KindInt {
			return typed.Value.Int(), true
		}
	case *mpl.Grouping:
		return literalMana(typed.Inner)
	case *mpl.Unary:
		if n, ok := literalMana(typed.Right); ok && typed.Operator.Lexeme == "-" && n != math.MinInt64 {
			return -n, true
		}
	}
	return 0, false
}
