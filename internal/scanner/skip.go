package scanner

import (
	"fmt"

	"github.com/nao1215/texfreq/internal/latex"
)

// skipEnvironment discards lines until the environment opened by openLine
// is closed. The depth starts at the marker balance of openLine, so an
// environment that opens and closes on one line consumes nothing more.
// Every later line, comment removed, moves the depth by its own balance;
// the skip ends when the depth reaches zero. Skipped lines are never
// tokenized.
func (s *ScanSession) skipEnvironment(openLine string) error {
	start := s.line
	depth := latex.Depth(openLine)

	s.stats.EnvironmentsSkipped++
	s.stats.SkippedLines++

	for depth > 0 {
		line, ok, err := s.next()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %q opened at line %d is still open at depth %d",
				ErrUnterminatedEnvironment, openLine, start, depth)
		}
		s.stats.SkippedLines++
		depth += latex.Depth(latex.StripComment(line))
	}

	s.logger.Debug("environment skipped",
		"open", openLine,
		"from", start,
		"to", s.line,
	)
	return nil
}
