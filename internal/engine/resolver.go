package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/model"
)

// Resolution is the outcome of resolving one event to a ticket.
type Resolution struct {
	JiraKey     string
	Description string // mapping override, empty otherwise
	Source      string // model.SourceMapped or model.SourceDetected
}

type compiledRule struct {
	rule config.MappingRule
	re   *regexp.Regexp
}

// Resolver extracts ticket keys from raw events using the ordered mapping
// rule set with a fallback detection pattern.
type Resolver struct {
	rules    []compiledRule
	ticketRe *regexp.Regexp
	excluded map[string]bool
}

// NewResolver compiles the rule set and the fallback ticket pattern. Pattern
// compilation errors are configuration errors and fail here, never per-event.
func NewResolver(rules []config.MappingRule, ticketPattern string, excludedApps []string) (*Resolver, error) {
	r := &Resolver{excluded: make(map[string]bool, len(excludedApps))}

	for _, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: %w", rule.Name, err)
		}
		r.rules = append(r.rules, compiledRule{rule: rule, re: re})
	}

	ticketRe, err := regexp.Compile("(?i)" + ticketPattern)
	if err != nil {
		return nil, fmt.Errorf("ticket pattern: %w", err)
	}
	r.ticketRe = ticketRe

	for _, app := range excludedApps {
		r.excluded[strings.ToLower(app)] = true
	}
	return r, nil
}

// Resolve returns the ticket resolution for one event, or ok=false when the
// event is unresolved. Rules are scanned in configured order; the first
// enabled match wins. Empty titles and app names never match.
func (r *Resolver) Resolve(ev model.RawEvent) (Resolution, bool) {
	for _, c := range r.rules {
		if !c.rule.Enabled {
			continue
		}
		matched := false
		switch c.rule.MatchType {
		case config.MatchTitle:
			matched = matchNonEmpty(c.re, ev.WindowTitle)
		case config.MatchApp:
			matched = matchNonEmpty(c.re, ev.AppName)
		default: // both
			matched = matchNonEmpty(c.re, ev.WindowTitle) || matchNonEmpty(c.re, ev.AppName)
		}
		if matched {
			return Resolution{
				JiraKey:     c.rule.JiraKey,
				Description: c.rule.Description,
				Source:      model.SourceMapped,
			}, true
		}
	}

	if key := r.ticketRe.FindString(ev.WindowTitle); key != "" {
		return Resolution{
			JiraKey: strings.ToUpper(key),
			Source:  model.SourceDetected,
		}, true
	}

	return Resolution{}, false
}

// Excluded reports whether unmatched activity from this app is dropped
// silently rather than counted as uncategorized.
func (r *Resolver) Excluded(appName string) bool {
	return r.excluded[strings.ToLower(appName)]
}

func matchNonEmpty(re *regexp.Regexp, s string) bool {
	return s != "" && re.MatchString(s)
}
