package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mielalabs/mpl-magick/mpl"
)

const indentUnit = "  "

func newFmtCommand(c *cli) *cobra.Command {
	var (
		write bool
		check bool
	)
	cmd := &cobra.Command{
		Use:   "fmt <path>...",
		Short: "Normalize indentation and whitespace of ritual files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectRitualFiles(args)
			if err != nil {
				return err
			}

			changedCount := 0
			for _, path := range files {
				originalBytes, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				original := string(originalBytes)
				formatted := formatSource(original)
				changed := formatted != original
				if changed {
					changedCount++
				}

				switch {
				case write && changed:
					info, err := os.Stat(path)
					if err != nil {
						return fmt.Errorf("stat %s: %w", path, err)
					}
					if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
						return fmt.Errorf("write %s: %w", path, err)
					}
				case !write && !check:
					fmt.Fprint(c.stdout, formatted)
				}
			}

			if check && changedCount > 0 {
				return fmt.Errorf("mpl fmt: %d file(s) need formatting", changedCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to source files instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "fail if any source file needs formatting")
	return cmd
}

func collectRitualFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0)
	addFile := func(path string, explicit bool) {
		if !explicit && filepath.Ext(path) != ".mpl" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target, true)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			addFile(path, false)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// formatSource re-indents lines by brace depth and strips trailing
// whitespace. Lines inside multi-line Sigils are left untouched. Sources
// that do not scan only get whitespace normalization.
func formatSource(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")

	layout, ok := scanLayout(normalized, len(lines))
	for i, line := range lines {
		n := i + 1
		switch {
		case ok && layout.verbatim[n]:
			continue
		case ok && layout.openString[n]:
			// trailing spaces belong to the Sigil
			lines[i] = strings.Repeat(indentUnit, layout.depth[n]) + strings.TrimLeft(line, " \t")
		case ok && strings.TrimSpace(line) != "":
			lines[i] = strings.Repeat(indentUnit, layout.depth[n]) + strings.TrimSpace(line)
		default:
			lines[i] = strings.TrimRight(line, " \t")
		}
	}

	joined := strings.Join(lines, "\n")
	joined = strings.TrimRight(joined, "\n")
	return joined + "\n"
}

type sourceLayout struct {
	depth      []int
	verbatim   []bool
	openString []bool
}

func scanLayout(source string, lineCount int) (sourceLayout, bool) {
	tokens, err := mpl.Scan(source)
	if err != nil {
		return sourceLayout{}, false
	}
	layout := sourceLayout{
		depth:      make([]int, lineCount+2),
		verbatim:   make([]bool, lineCount+2),
		openString: make([]bool, lineCount+2),
	}
	delta := make([]int, lineCount+2)
	closesFirst := make([]bool, lineCount+2)
	seenLine := make([]bool, lineCount+2)

	for _, tok := range tokens {
		line := tok.Pos.Line
		if line < 1 || line > lineCount {
			continue
		}
		first := !seenLine[line]
		seenLine[line] = true
		switch tok.Lexeme {
		case "{":
			delta[line]++
		case "}":
			delta[line]--
			if first {
				closesFirst[line] = true
			}
		}
		if span := strings.Count(tok.Lexeme, "\n"); span > 0 && strings.HasPrefix(tok.Lexeme, `"`) {
			for l := line; l < line+span && l <= lineCount; l++ {
				layout.openString[l] = true
			}
			for l := line + 1; l <= line+span && l <= lineCount; l++ {
				layout.verbatim[l] = true
			}
		}
	}

	depth := 0
	for line := 1; line <= lineCount; line++ {
		d := depth
		if closesFirst[line] {
			d--
		}
		layout.depth[line] = max(d, 0)
		depth = max(depth+delta[line], 0)
	}
	return layout, true
}
