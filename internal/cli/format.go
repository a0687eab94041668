package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// fatih/color disables these automatically when stdout is not a terminal.
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
)

// PrintSection prints a section header surrounded by blank lines.
func PrintSection(title string) {
	_, _ = headerColor.Printf("\n▸ %s\n\n", title)
}

// PrintSubsection prints an indented subsection header.
func PrintSubsection(title string) {
	_, _ = infoColor.Printf("  %s\n", title)
}

// PrintSuccess prints msg after a check mark.
func PrintSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// PrintWarning prints msg after a warning sign.
func PrintWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// PrintError prints msg to stderr.
func PrintError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

// PrintInfo prints msg uncolored.
func PrintInfo(msg string) {
	fmt.Println(msg)
}

// PrintLabelValue prints "label: value" with the label highlighted.
func PrintLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	_, _ = valueColor.Println(value)
}

// PrintList prints items as bullets, indented by indent levels.
func PrintList(items []string, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Printf("%s• %s\n", prefix, item)
	}
}

// PrintTable prints rows under headers with left-aligned columns.
// Cells beyond the header count are dropped.
func PrintTable(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len(row[i]))
		}
	}

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}

	printRow(headerColor, headers, widths)
	printRow(nil, rule, widths)
	for _, row := range rows {
		printRow(valueColor, row, widths)
	}
}

func printRow(c *color.Color, cells []string, widths []int) {
	var b strings.Builder
	b.WriteString("  ")
	for i := 0; i < len(cells) && i < len(widths); i++ {
		if i > 0 {
			b.WriteString("  ")
		}
		cell := fmt.Sprintf("%-*s", widths[i], cells[i])
		if c != nil {
			cell = c.Sprint(cell)
		}
		b.WriteString(cell)
	}
	fmt.Println(strings.TrimRight(b.String(), " "))
}

// PrintEmptyState prints a dimmed placeholder for an empty listing.
func PrintEmptyState(msg string) {
	_, _ = valueColor.Printf("  %s\n", msg)
}

// PrintCount formats count with the singular or plural noun.
func PrintCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
