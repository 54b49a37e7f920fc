package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

const defaultRedactionString = "[REDACTED]"

// Scrubber detects and redacts secrets in content.
type Scrubber interface {
	// Scrub redacts secrets from the content.
	Scrub(content string) *Result

	// Check detects secrets without redacting.
	Check(content string) *Result

	// IsEnabled reports whether scrubbing is active.
	IsEnabled() bool
}

// Config configures the scrubber.
type Config struct {
	// Enabled controls whether scrubbing is active.
	Enabled bool

	// RedactionString replaces detected secrets (default "[REDACTED]").
	RedactionString string

	// AllowlistPath points at an optional TOML allowlist file.
	AllowlistPath string
}

// DefaultConfig returns the standard scrubber configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		RedactionString: defaultRedactionString,
	}
}

// scrubber runs a gitleaks detector built once at construction. The
// detector is read-only after New, so Scrub is safe for concurrent use.
type scrubber struct {
	detector  *detect.Detector
	redaction string
}

// New creates a Scrubber from cfg. A nil cfg uses DefaultConfig. A
// disabled cfg yields a NoopScrubber.
func New(cfg *Config) (Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return &NoopScrubber{}, nil
	}

	redaction := cfg.RedactionString
	if redaction == "" {
		redaction = defaultRedactionString
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("building gitleaks detector: %w", err)
	}

	allowlist, err := LoadAllowlist(cfg.AllowlistPath)
	if err != nil {
		return nil, fmt.Errorf("loading allowlist: %w", err)
	}
	if !allowlist.Empty() {
		if err := applyAllowlist(&detector.Config, allowlist); err != nil {
			return nil, err
		}
	}

	return &scrubber{
		detector:  detector,
		redaction: redaction,
	}, nil
}

// Scrub redacts secrets from the content. Every occurrence of a detected
// secret value is replaced, not just the position the detector reported.
func (s *scrubber) Scrub(content string) *Result {
	start := time.Now()
	result := &Result{
		Original: content,
		Scrubbed: content,
		Findings: make([]Finding, 0),
		ByRule:   make(map[string]int),
	}
	if content == "" {
		result.Duration = time.Since(start)
		return result
	}

	spans := make([]span, 0)
	seen := make(map[Finding]struct{})
	for _, f := range s.detector.DetectString(content) {
		needle := f.Secret
		if needle == "" {
			needle = f.Match
		}
		for _, sp := range locate(content, needle) {
			finding := Finding{
				RuleID:      f.RuleID,
				Description: f.Description,
				Line:        strings.Count(content[:sp.start], "\n") + 1,
				StartIndex:  sp.start,
				EndIndex:    sp.end,
			}
			// Overlapping rules and repeated detector hits produce
			// duplicates; count each (rule, span) pair once.
			if _, dup := seen[finding]; dup {
				continue
			}
			seen[finding] = struct{}{}

			result.Findings = append(result.Findings, finding)
			result.ByRule[f.RuleID]++
			spans = append(spans, sp)
		}
	}
	result.TotalFindings = len(result.Findings)

	sort.Slice(result.Findings, func(i, j int) bool {
		if result.Findings[i].StartIndex != result.Findings[j].StartIndex {
			return result.Findings[i].StartIndex < result.Findings[j].StartIndex
		}
		return result.Findings[i].RuleID < result.Findings[j].RuleID
	})

	if len(spans) > 0 {
		merged := mergeSpans(spans)
		scrubbed := content
		// Splice back to front so earlier offsets stay valid.
		for i := len(merged) - 1; i >= 0; i-- {
			sp := merged[i]
			scrubbed = scrubbed[:sp.start] + s.redaction + scrubbed[sp.end:]
		}
		result.Scrubbed = scrubbed
	}

	result.Duration = time.Since(start)
	return result
}

// Check detects secrets without redacting.
func (s *scrubber) Check(content string) *Result {
	result := s.Scrub(content)
	result.Scrubbed = result.Original
	return result
}

// IsEnabled reports whether scrubbing is active.
func (s *scrubber) IsEnabled() bool {
	return true
}

// span is a half-open byte range in the original content.
type span struct {
	start, end int
}

// locate returns every occurrence of needle in content. Matching on the
// secret value rather than the detector's line/column report means a
// secret repeated outside the reported position is still caught.
func locate(content, needle string) []span {
	if needle == "" {
		return nil
	}
	var spans []span
	for from := 0; ; {
		i := strings.Index(content[from:], needle)
		if i < 0 {
			return spans
		}
		start := from + i
		spans = append(spans, span{start: start, end: start + len(needle)})
		from = start + len(needle)
	}
}

// mergeSpans sorts spans and merges overlapping or adjacent ranges so the
// splice pass never cuts the same region twice.
func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	merged := make([]span, 0, len(spans))
	merged = append(merged, spans[0])
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// applyAllowlist merges user exemptions into the gitleaks config.
// Patterns were validated by LoadAllowlist, so compile errors here mean
// the allowlist bypassed validation.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) error {
	entry := &gitleaksConfig.Allowlist{
		Description: "queryd allowlist",
	}

	for _, pattern := range allowlist.Paths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: path pattern %q: %v", ErrInvalidRegex, pattern, err)
		}
		entry.Paths = append(entry.Paths, (*gitleaksRegexp.Regexp)(re))
	}
	for _, pattern := range allowlist.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: content pattern %q: %v", ErrInvalidRegex, pattern, err)
		}
		entry.Regexes = append(entry.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	// Literal allowlist entries also work as stopwords, which gitleaks
	// matches against the secret value itself.
	entry.StopWords = append(entry.StopWords, allowlist.Regexes...)

	cfg.Allowlists = append(cfg.Allowlists, entry)
	return nil
}

// NoopScrubber passes content through unchanged. It stands in when
// scrubbing is disabled or the detector failed to initialize.
type NoopScrubber struct{}

// Scrub returns content unchanged.
func (n *NoopScrubber) Scrub(content string) *Result {
	return &Result{
		Original: content,
		Scrubbed: content,
		Findings: make([]Finding, 0),
		ByRule:   make(map[string]int),
	}
}

// Check returns content unchanged.
func (n *NoopScrubber) Check(content string) *Result {
	return n.Scrub(content)
}

// IsEnabled returns false.
func (n *NoopScrubber) IsEnabled() bool {
	return false
}

// Compile-time checks that both implementations satisfy Scrubber.
var _ Scrubber = (*scrubber)(nil)
var _ Scrubber = (*NoopScrubber)(nil)
