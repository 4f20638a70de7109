package main

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
)

func defaultJobs() int {
	return max(runtime.GOMAXPROCS(0), 1)
}

// unifiedDiff renders a three-line-context unified diff of before and after.
func unifiedDiff(path string, before, after []byte) string {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return out
}

// IsColorEnabled resolves a --color mode for w. In auto mode color is used only
// when w is a terminal and NO_COLOR is unset.
func IsColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func colorDiff(diff string, enabled bool) string {
	if !enabled || diff == "" {
		return diff
	}

	header := color.New(color.Bold)
	hunk := color.New(color.FgCyan)
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	for _, c := range []*color.Color{header, hunk, added, removed} {
		c.EnableColor()
	}

	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		body, nl := strings.CutSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"):
			body = header.Sprint(body)
		case strings.HasPrefix(body, "@@"):
			body = hunk.Sprint(body)
		case strings.HasPrefix(body, "+"):
			body = added.Sprint(body)
		case strings.HasPrefix(body, "-"):
			body = removed.Sprint(body)
		}
		b.WriteString(body)
		if nl {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
