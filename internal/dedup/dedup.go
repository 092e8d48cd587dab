// Package dedup enforces the cross-section uniqueness invariant: no
// quote or source name in the conflicts section may appear in the
// facts, perspectives, or timeline sections, or twice within the
// conflicts section itself.
package dedup

import (
	"regexp"

	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
)

var quoteRe = regexp.MustCompile(`"([^"]*)"`)

// Deduplicate filters report.ConflictingInfo so that its quotes and
// source names are pairwise disjoint and disjoint from every other
// section. Entries are atomic: one offending quote or name drops the
// whole entry.
func Deduplicate(report *model.Report) {
	existing := collectQuotes(report)

	usedQuotes := map[string]struct{}{}
	usedNames := map[string]struct{}{}
	kept := make([]model.Conflict, 0, len(report.ConflictingInfo))

	for _, c := range report.ConflictingInfo {
		if inSet(existing, c.SourceA.Quote, c.SourceB.Quote) ||
			inSet(usedQuotes, c.SourceA.Quote, c.SourceB.Quote) ||
			inSet(usedNames, c.SourceA.Name, c.SourceB.Name) {
			logger.Log.Infof("dropping conflict %q: duplicate quote or source", c.ConflictID)
			continue
		}
		kept = append(kept, c)
		addSet(usedQuotes, c.SourceA.Quote, c.SourceB.Quote)
		addSet(usedNames, c.SourceA.Name, c.SourceB.Name)
	}

	report.ConflictingInfo = kept
}

// Verify independently re-checks the invariant Deduplicate establishes.
// Violations are logged at error level; the report is served anyway.
func Verify(report *model.Report) bool {
	existing := collectQuotes(report)
	seenQuotes := map[string]struct{}{}
	seenNames := map[string]struct{}{}
	clean := true

	for _, c := range report.ConflictingInfo {
		for _, q := range []string{c.SourceA.Quote, c.SourceB.Quote} {
			if q == "" {
				continue
			}
			if _, ok := existing[q]; ok {
				logger.Log.Errorf("conflict %q reuses quote from another section: %.60q", c.ConflictID, q)
				clean = false
			}
			if _, ok := seenQuotes[q]; ok {
				logger.Log.Errorf("conflict %q repeats quote within conflicts: %.60q", c.ConflictID, q)
				clean = false
			}
			seenQuotes[q] = struct{}{}
		}
		for _, n := range []string{c.SourceA.Name, c.SourceB.Name} {
			if n == "" {
				continue
			}
			if _, ok := seenNames[n]; ok {
				logger.Log.Errorf("conflict %q repeats source name within conflicts: %q", c.ConflictID, n)
				clean = false
			}
			seenNames[n] = struct{}{}
		}
	}
	return clean
}

// collectQuotes gathers every quote appearing outside the conflicts
// section: double-quoted substrings in facts and timeline descriptions,
// plus the designated quote fields of perspectives.
func collectQuotes(report *model.Report) map[string]struct{} {
	quotes := map[string]struct{}{}

	for _, group := range report.RawFacts {
		for _, fact := range group.Facts {
			for _, m := range quoteRe.FindAllStringSubmatch(fact, -1) {
				addSet(quotes, m[1])
			}
		}
	}
	for _, p := range report.Perspectives {
		addSet(quotes, p.Quote, p.ConflictQuote)
	}
	for _, item := range report.TimelineItems {
		for _, m := range quoteRe.FindAllStringSubmatch(item.Description, -1) {
			addSet(quotes, m[1])
		}
	}
	return quotes
}

func inSet(set map[string]struct{}, values ...string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func addSet(set map[string]struct{}, values ...string) {
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
}
