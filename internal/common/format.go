package common

import (
	"fmt"
	"strings"

	"asset-lifecycle-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// PrintBatchResult prints one line per item followed by the totals.
func PrintBatchResult(result models.BatchResult) {
	title := result.Operation
	if result.DryRun {
		title += " (dry run)"
	}
	PrintHeader(title, DefaultWidth)

	if len(result.Items) == 0 {
		fmt.Println("Nothing to do")
	}
	for i, item := range result.Items {
		isLast := i == len(result.Items)-1
		label := item.Label
		if label == "" {
			label = item.Id
		}
		fmt.Printf("%s%-9s %s\n", BoxPrefix(isLast), item.Outcome, label)
		if item.Message != "" {
			fmt.Printf("%s  %s\n", BoxDetailPrefix(isLast), item.Message)
		}
	}

	PrintFooter(fmt.Sprintf("Succeeded: %d  Skipped: %d  Failed: %d",
		result.Succeeded(), result.Skipped(), result.Failed()), DefaultWidth)
}

// ExitCode is 1 when any item failed.
func ExitCode(result models.BatchResult) int {
	if result.HasFailures() {
		return 1
	}
	return 0
}
