// Package latex classifies and cleans single lines of LaTeX source.
//
// Every function in this package is pure: it receives one line and returns
// a new value without touching any shared state. The scanner package calls
// these helpers while it walks a document; they never see more than one line
// at a time.
//
// # Processing Order
//
// Prose extraction must run in a fixed order, each stage consuming the
// output of the previous one:
//
//	StripComment -> StripInlineMath -> StripInlineCommands -> Tokenize
//
// Command stripping runs after math stripping because the command pattern
// would otherwise swallow formula content such as "$\alpha + b$". Tokenizing
// before command stripping would count command names as words.
//
// # Known Approximations
//
// Escaped comment markers ("\%") are deleted from the text rather than kept
// as a literal percent sign, and command removal is a single regular
// expression pass that does not understand nested braces or multiple
// arguments. Both behaviors are kept so counts stay comparable with earlier
// releases.
package latex
