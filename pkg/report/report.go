package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

type Line struct {
	Severity Severity
	Text     string
}

func (l Line) String() string {
	switch l.Severity {
	case Warning:
		return "WARN " + l.Text
	case Error:
		return "ERROR " + l.Text
	default:
		return l.Text
	}
}

// Report is the ordered, append-only record of one tick.
type Report struct {
	mu    sync.Mutex
	lines []Line
	fatal error
}

func New() *Report {
	return &Report{}
}

func (r *Report) add(sev Severity, text string) {
	r.mu.Lock()
	r.lines = append(r.lines, Line{Severity: sev, Text: text})
	r.mu.Unlock()

	switch sev {
	case Warning:
		logger.Warn(text)
	case Error:
		logger.Error(text)
	default:
		logger.Info(text)
	}
}

func (r *Report) Addf(format string, args ...any) {
	r.add(Info, fmt.Sprintf(format, args...))
}

func (r *Report) Warnf(format string, args ...any) {
	r.add(Warning, fmt.Sprintf(format, args...))
}

func (r *Report) Errorf(format string, args ...any) {
	r.add(Error, fmt.Sprintf(format, args...))
}

// Fail records a fault that stopped the whole tick.
func (r *Report) Fail(err error) {
	r.mu.Lock()
	r.fatal = err
	r.mu.Unlock()
	r.add(Error, err.Error())
}

// Err returns the tick-level fault, if any.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal
}

func (r *Report) Failed() bool {
	return r.Err() != nil
}

func (r *Report) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Count returns how many lines carry the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, l := range r.Lines() {
		if l.Severity == sev {
			n++
		}
	}
	return n
}

func (r *Report) String() string {
	lines := r.Lines()
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}
