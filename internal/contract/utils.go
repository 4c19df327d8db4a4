package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Score label constants.
const (
	ExcellentValue = "Excellent" // Excellent value
	GoodValue      = "Good"      // Good value
	FairValue      = "Fair"      // Fair value
	WeakValue      = "Weak"      // Weak value
	NoDataValue    = "No data"   // No respondents
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // ExcellentColor marks top scores.
	GoodColor      = color.New(color.FgCyan)              // GoodColor marks solid scores.
	FairColor      = color.New(color.FgYellow)            // FairColor marks middling scores.
	WeakColor      = color.New(color.FgRed, color.Bold)   // WeakColor marks scores needing attention.
	NoDataColor    = color.New(color.Faint)
)

// GetPlainLabel returns a plain text label for a 5-point scale score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64, hasData bool) string {
	switch {
	case !hasData:
		return NoDataValue
	case score >= 4.5:
		return ExcellentValue
	case score >= 4.0:
		return GoodValue
	case score >= 3.0:
		return FairValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64, hasData bool) string {
	text := GetPlainLabel(score, hasData)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	default:
		return NoDataColor.Sprint(text)
	}
}

// SelectOutputFile returns the file handle for output. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the SQLite DB file for survey storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".kepco_survey.db"
	}
	return filepath.Join(homeDir, ".kepco_survey.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// DepartmentFromUsername derives the department prefix of a "<department>_..." username.
// Names without an underscore, such as executive accounts ("간부1"), return false.
// The underscore wins: "간부_1" groups under "간부".
func DepartmentFromUsername(username string) (string, bool) {
	dept, _, found := strings.Cut(username, "_")
	if !found || dept == "" {
		return "", false
	}
	return dept, true
}
