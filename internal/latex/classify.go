package latex

import (
	"iter"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Markers recognized by the classifier.
const (
	// CommentMarker starts a comment that runs to the end of the line.
	CommentMarker = "%"

	// EscapedCommentMarker is a literal percent sign in prose.
	// It is removed from the line, not restored as "%".
	EscapedCommentMarker = `\%`

	// MathDelimiter opens and closes inline formulas.
	MathDelimiter = "$"

	// EnvironmentOpen is the keyword that starts a block environment.
	EnvironmentOpen = `\begin`

	// EnvironmentClose is the keyword that ends a block environment.
	EnvironmentClose = `\end`
)

var (
	// inlineMathPattern matches the shortest $...$ span.
	inlineMathPattern = regexp.MustCompile(`\$.*?\$`)

	// inlineCommandPattern matches a backslash followed by a non-whitespace
	// run and an optional brace argument. The \S+ run is greedy, so in
	// practice the match ends at the next whitespace character.
	inlineCommandPattern = regexp.MustCompile(`\\\S+\{?.*?\}?`)

	// wordPattern matches maximal runs of letters, digits and underscores.
	// Combining marks left over after NFC composition stay in the word.
	wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)
)

// StripComment returns the part of line that precedes the first comment
// marker, trimmed of surrounding whitespace. Escaped markers are deleted.
func StripComment(line string) string {
	line = strings.ReplaceAll(line, EscapedCommentMarker, "")
	if cut := strings.Index(line, CommentMarker); cut >= 0 {
		line = line[:cut]
	}
	return strings.TrimSpace(line)
}

// StripInlineMath removes every $...$ span from line in order of appearance.
// Only the ends of the result are trimmed; interior spacing is preserved.
func StripInlineMath(line string) string {
	return strings.TrimSpace(inlineMathPattern.ReplaceAllString(line, ""))
}

// StripInlineCommands removes command tokens from line in a single,
// non-recursive pass. It must run after StripInlineMath.
func StripInlineCommands(line string) string {
	return strings.TrimSpace(inlineCommandPattern.ReplaceAllString(line, ""))
}

// Prose runs the comment, math and command stages on line and returns the
// text that is left for tokenizing.
func Prose(line string) string {
	return StripInlineCommands(StripInlineMath(StripComment(line)))
}

// Tokenize yields the lowercased words of line. The line is composed to NFC
// first so that visually equal words count as one token. The sequence is
// computed lazily and is meant to be ranged over once.
func Tokenize(line string) iter.Seq[string] {
	return func(yield func(string) bool) {
		line := norm.NFC.String(line)
		for _, loc := range wordPattern.FindAllStringIndex(line, -1) {
			if !yield(strings.ToLower(line[loc[0]:loc[1]])) {
				return
			}
		}
	}
}

// IsEnvironmentOpen reports whether line, ignoring leading whitespace,
// begins with the environment-open keyword.
func IsEnvironmentOpen(line string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), EnvironmentOpen)
}

// IsEnvironmentClose reports whether line, ignoring leading whitespace,
// begins with the environment-close keyword.
func IsEnvironmentClose(line string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), EnvironmentClose)
}

// Depth returns how much line changes the environment nesting depth:
// the number of open keywords minus the number of close keywords.
// A line such as `\begin{a}\begin{b}x\end{b}\end{a}` has depth 0.
func Depth(line string) int {
	return strings.Count(line, EnvironmentOpen) - strings.Count(line, EnvironmentClose)
}
