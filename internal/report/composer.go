// Package report reshapes a ranked page collection into the output document
// and persists it.
package report

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"docrank/internal/domain"
)

const (
	// DefaultTopK is the number of pages a report keeps.
	DefaultTopK = 5
	// TitleMaxChars bounds section titles, in characters.
	TitleMaxChars = 80
	// ExcerptMaxChars bounds refined text before the ellipsis, in characters.
	ExcerptMaxChars = 500
	// Ellipsis marks a truncated excerpt.
	Ellipsis = "..."
	// TimestampLayout is ISO-8601 with microseconds and zone offset.
	TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// Compose builds the report for the first k ranked pages. Ranks are
// positional. Metadata lists every document that has a ranked page, not just
// the top k. clock is read once; nil means time.Now.
func Compose(ranked []domain.PageRecord, q domain.Query, k int, clock func() time.Time) domain.Report {
	if clock == nil {
		clock = time.Now
	}
	generated := clock()

	top := ranked[:min(max(k, 0), len(ranked))]
	sections := make([]domain.ExtractedSection, 0, len(top))
	analysis := make([]domain.SubSectionAnalysis, 0, len(top))
	for i, rec := range top {
		sections = append(sections, domain.ExtractedSection{
			Document:       rec.DocumentID,
			PageNumber:     rec.PageNumber,
			SectionTitle:   SectionTitle(rec.Text),
			ImportanceRank: i + 1,
		})
		analysis = append(analysis, domain.SubSectionAnalysis{
			Document:    rec.DocumentID,
			PageNumber:  rec.PageNumber,
			RefinedText: RefinedText(rec.Text),
		})
	}

	return domain.Report{
		Metadata: domain.Metadata{
			InputDocuments: documentIDs(ranked),
			Persona:        q.Persona,
			JobToBeDone:    q.Job,
			Timestamp:      generated.Format(TimestampLayout),
		},
		ExtractedSections:  sections,
		SubSectionAnalysis: analysis,
	}
}

// SectionTitle returns the first line of text cut to TitleMaxChars.
func SectionTitle(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return truncate(line, TitleMaxChars)
}

// RefinedText returns text unchanged up to ExcerptMaxChars, otherwise its
// first ExcerptMaxChars characters followed by Ellipsis.
func RefinedText(text string) string {
	if utf8.RuneCountInString(text) <= ExcerptMaxChars {
		return text
	}
	return truncate(text, ExcerptMaxChars) + Ellipsis
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func documentIDs(ranked []domain.PageRecord) []string {
	ids := make([]string, 0)
	for _, rec := range ranked {
		ids = append(ids, rec.DocumentID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
