package sanitize

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// excerptRunes bounds how much of a flagged value reaches the logs.
const excerptRunes = 120

// flaggedTotal counts heuristic hits. Flagging is advisory; the counter is
// the monitoring signal the heuristics exist for.
var flaggedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ideaminer",
	Subsystem: "sanitize",
	Name:      "suspicious_inputs_total",
	Help:      "Inputs that matched an injection heuristic.",
}, []string{"field"})

// Scanner detects text that resembles a prompt-injection attempt. Detection
// is advisory: a hit is logged for monitoring and counted by the caller, but
// the request always proceeds. Blocking here would punish legitimate ideas
// that happen to discuss prompts.
type Scanner struct {
	patterns []*regexp.Regexp
	redactor []*regexp.Regexp
	logger   *zap.Logger
}

// NewScanner creates a scanner with the default heuristic patterns.
func NewScanner(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		patterns: compileAll(injectionPatterns),
		redactor: compileAll(secretPatterns),
		logger:   logger,
	}
}

// FlagIfSuspicious scans raw text and reports whether any heuristic matched.
// On a hit it emits one structured log entry naming the field and a redacted
// excerpt. It never returns an error and never mutates the request path.
func (s *Scanner) FlagIfSuspicious(fieldName, raw string) bool {
	text := norm.NFC.String(raw)

	for _, pattern := range s.patterns {
		if pattern.MatchString(text) {
			s.logger.Warn("suspicious input flagged",
				zap.String("field", fieldName),
				zap.String("pattern", pattern.String()),
				zap.String("excerpt", s.excerpt(text)),
			)
			flaggedTotal.WithLabelValues(fieldName).Inc()
			return true
		}
	}
	return false
}

// excerpt returns the head of the text with secret-shaped substrings removed.
func (s *Scanner) excerpt(text string) string {
	for _, pattern := range s.redactor {
		text = pattern.ReplaceAllString(text, "<redacted>")
	}
	if runes := []rune(text); len(runes) > excerptRunes {
		text = string(runes[:excerptRunes])
	}
	return text
}

// injectionPatterns are the known heuristics. Case-insensitive throughout.
var injectionPatterns = []string{
	// Attempts to override the standing instructions.
	`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?)`,
	`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|above|earlier)`,
	`(?i)forget\s+(everything|all)\s+(you|above|before)`,
	// Attempts to open a new instruction context.
	`(?i)new\s+instructions?\s*:`,
	`(?i)\bsystem\s*prompt\b`,
	`(?i)you\s+are\s+now\s+(a|an|the)\b`,
	// Embedded role markers from chat transcript formats.
	`(?i)^\s*(system|assistant|user)\s*:`,
	`(?i)<\|?(im_start|im_end|system|endoftext)\|?>`,
	`\[INST\]|\[/INST\]`,
	// Attempts to fabricate our own boundary markers.
	`<<<END_[A-Z_]+>>>`,
}

// secretPatterns mirror the common credential shapes so a flagged excerpt
// never leaks a key into the logs.
var secretPatterns = []string{
	`sk-[a-zA-Z0-9\-]{20,}`,
	`AKIA[0-9A-Z]{16}`,
	`gh[posr]_[a-zA-Z0-9]{20,}`,
	`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`,
	`Bearer\s+[a-zA-Z0-9_\-\.]+`,
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
