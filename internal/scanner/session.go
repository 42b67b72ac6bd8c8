package scanner

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/texfreq/internal/latex"
	"github.com/nao1215/texfreq/internal/model"
)

// Default document markers.
const (
	DefaultBeginMarker = `\begin{document}`
	DefaultEndMarker   = `\end{document}`
)

// Markers are the lines that delimit the counted body of a document.
// A line matches a marker when, with its comment removed and surrounding
// whitespace trimmed, it is equal to it.
type Markers struct {
	Begin string
	End   string
}

// DefaultMarkers returns the standard LaTeX document markers.
func DefaultMarkers() Markers {
	return Markers{Begin: DefaultBeginMarker, End: DefaultEndMarker}
}

// ScanSession scans one document. It owns the read cursor and the
// Frequency being built, and it can be used for a single scan only.
type ScanSession struct {
	// source supplies the document lines.
	source LineSource

	// markers delimit the body.
	markers Markers

	// logger receives state transitions at debug level.
	logger *slog.Logger

	// state is the current state machine position.
	state State

	// line is the number of lines read so far.
	line int

	// freq collects body tokens.
	freq model.Frequency

	// stats counts lines by outcome.
	stats model.ScanStats
}

// Option configures a ScanSession.
type Option func(*ScanSession)

// WithMarkers replaces the document markers. Empty fields keep the default.
func WithMarkers(m Markers) Option {
	return func(s *ScanSession) {
		if m.Begin != "" {
			s.markers.Begin = m.Begin
		}
		if m.End != "" {
			s.markers.End = m.End
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ScanSession) {
		s.logger = logger
	}
}

// NewSession creates a session positioned at the first line of source.
func NewSession(source LineSource, opts ...Option) *ScanSession {
	s := &ScanSession{
		source:  source,
		markers: DefaultMarkers(),
		state:   StatePreamble,
		freq:    model.NewFrequency(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Scan reads the document to its end marker and returns the token counts
// and line statistics. On failure it returns a *ScanError and no counts.
func (s *ScanSession) Scan() (model.Frequency, model.ScanStats, error) {
	if s.state != StatePreamble {
		return nil, s.stats, ErrSessionFinished
	}

	if err := s.skipPreamble(); err != nil {
		return s.fail(err)
	}

	for {
		line, ok, err := s.next()
		if err != nil {
			return s.fail(err)
		}
		if !ok {
			return s.fail(fmt.Errorf("%w: %q not found", ErrMissingDocumentBoundary, s.markers.End))
		}

		text := latex.StripComment(line)
		switch {
		case text == s.markers.End:
			s.transition(StateDone)
			return s.freq, s.stats, nil

		case latex.IsEnvironmentOpen(text):
			s.transition(StateInEnvironment)
			if err := s.skipEnvironment(text); err != nil {
				return s.fail(err)
			}
			s.transition(StateScanning)

		default:
			s.stats.CountedLines++
			s.freq.Record(latex.Tokenize(latex.Prose(line)))
		}
	}
}

// State returns the current state.
func (s *ScanSession) State() State {
	return s.state
}

// Line returns the number of lines read so far.
func (s *ScanSession) Line() int {
	return s.line
}

// skipPreamble discards lines up to and including the start marker.
func (s *ScanSession) skipPreamble() error {
	for {
		line, ok, err := s.next()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %q not found", ErrMissingDocumentBoundary, s.markers.Begin)
		}
		if latex.StripComment(line) == s.markers.Begin {
			s.transition(StateScanning)
			return nil
		}
		s.stats.PreambleLines++
	}
}

// next reads one line. ok is false at a clean end of input.
func (s *ScanSession) next() (line string, ok bool, err error) {
	if !s.source.Scan() {
		if err := s.source.Err(); err != nil {
			return "", false, fmt.Errorf("read line %d: %w", s.line+1, err)
		}
		return "", false, nil
	}
	s.line++
	s.stats.LinesRead++
	return s.source.Text(), true, nil
}

// transition moves the session to state.
func (s *ScanSession) transition(state State) {
	s.logger.Debug("scanner state changed",
		"from", s.state.String(),
		"to", state.String(),
		"line", s.line,
	)
	s.state = state
}

// fail moves the session to StateFailed and wraps err with its position.
func (s *ScanSession) fail(err error) (model.Frequency, model.ScanStats, error) {
	scanErr := &ScanError{Line: s.line, State: s.state, Err: err}
	s.state = StateFailed
	s.freq = nil
	return nil, s.stats, scanErr
}

// Scan is a convenience wrapper that scans the document read from r with a
// fresh session.
func Scan(r io.Reader, opts ...Option) (model.Frequency, model.ScanStats, error) {
	return NewSession(NewReaderSource(r, DefaultMaxLineSize), opts...).Scan()
}
