package diag

import (
	"fmt"
	"sort"

	"github.com/lunac-lang/lunac/internal/source"
)

// Diagnostic is the canonical structured error/warning type produced by the
// checker. Every engine returns Diagnostics rather than raising; visitors
// are the only place that forwards them to a Sink.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Code     string
	Span     source.Span
	Message  string
	Data     map[string]any // extra structured context (sorted on encode)
}

// New builds a Diagnostic at the kind's default severity.
func New(kind Kind, span source.Span, message string) *Diagnostic {
	return &Diagnostic{
		Severity: DefaultSeverity(kind),
		Kind:     kind,
		Code:     Code(kind),
		Span:     span,
		Message:  message,
	}
}

// WithData attaches structured context and returns the receiver for chaining.
func (d *Diagnostic) WithData(key string, value any) *Diagnostic {
	if d.Data == nil {
		d.Data = make(map[string]any)
	}
	d.Data[key] = value
	return d
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Code, d.Message)
}

// Sink is the capability interface every phase reports through. Core
// components never hold a concrete sink type, only this interface, so they
// compose without knowing who renders diagnostics (terminal, JSON, LSP).
type Sink interface {
	Report(d *Diagnostic)
}

// CollectingSink accumulates diagnostics in report order and exposes
// counters, matching the "exposes counters and a read-only diagnostic list"
// contract of spec.md's diagnostics sink collaborator.
type CollectingSink struct {
	diags      []*Diagnostic
	errorCount int
	warnCount  int
	maxErrors  int // 0 = unbounded
}

// NewCollectingSink creates a sink. maxErrors, if positive, is an error
// budget: once hit, ShouldAbort reports true so the orchestrator can cancel
// at the next statement boundary (spec.md §5's cancellation contract).
func NewCollectingSink(maxErrors int) *CollectingSink {
	return &CollectingSink{maxErrors: maxErrors}
}

func (s *CollectingSink) Report(d *Diagnostic) {
	s.diags = append(s.diags, d)
	switch d.Severity {
	case SeverityError:
		s.errorCount++
	case SeverityWarning:
		s.warnCount++
	}
}

func (s *CollectingSink) Diagnostics() []*Diagnostic { return s.diags }
func (s *CollectingSink) ErrorCount() int            { return s.errorCount }
func (s *CollectingSink) WarningCount() int          { return s.warnCount }

// ShouldAbort reports whether the configured error budget has been reached.
func (s *CollectingSink) ShouldAbort() bool {
	return s.maxErrors > 0 && s.errorCount >= s.maxErrors
}

// SortedByPosition returns a copy of the diagnostics ordered by file, then
// line, then column, for stable human-facing output.
func (s *CollectingSink) SortedByPosition() []*Diagnostic {
	out := make([]*Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Span.Start, out[j].Span.Start
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}
