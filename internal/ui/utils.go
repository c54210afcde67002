package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	blue   = color.New(color.FgBlue)
	cyan   = color.New(color.FgCyan)
)

// PrintBanner displays the application banner
func PrintBanner() {
	cyan.Println(figure.NewFigure("LST", "isometric1", true).String())
	cyan.Println(figure.NewFigure("Map", "isometric1", true).String())
	fmt.Println()
}

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	yellow.Println("\nWarning:")
	yellow.Println(message)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	red.Printf("\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	green.Printf("\n%s\n", message)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	blue.Print(message)
}

// ReadString reads a string from stdin with trimming
func ReadString(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	PrintInfo(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(prompt string) bool {
	answer := strings.ToLower(ReadString(prompt + " [y/N]: "))
	return answer == "y" || answer == "yes"
}
