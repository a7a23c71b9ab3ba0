package domain

import (
	"context"
	"iter"
)

// PageRecord is one page of extracted text.
type PageRecord struct {
	DocumentID string
	PageNumber int
	Text       string
	// Score is assigned once by the ranker. Undefined similarities are
	// stored as negative infinity.
	Score  float64
	Scored bool
}

// Query is the persona and job pair together with the prompt used for scoring.
type Query struct {
	Persona string
	Job     string
	Prompt  string
}

// Metadata describes the run that produced a report.
type Metadata struct {
	InputDocuments []string `json:"input_documents"`
	Persona        string   `json:"persona"`
	JobToBeDone    string   `json:"job_to_be_done"`
	Timestamp      string   `json:"timestamp"`
}

// ExtractedSection is one top-ranked page in the report.
type ExtractedSection struct {
	Document       string `json:"document"`
	PageNumber     int    `json:"page_number"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
}

// SubSectionAnalysis carries the excerpt of a top-ranked page.
type SubSectionAnalysis struct {
	Document    string `json:"document"`
	PageNumber  int    `json:"page_number"`
	RefinedText string `json:"refined_text"`
}

// Report is the output artifact of a run.
type Report struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubSectionAnalysis []SubSectionAnalysis `json:"sub_section_analysis"`
}

// TextSource turns a document into its non-empty pages, in page order.
type TextSource interface {
	Extract(ctx context.Context, path string) (iter.Seq[PageRecord], error)
}

// ReportWriter persists a finished report.
type ReportWriter interface {
	Write(ctx context.Context, report Report) (location string, err error)
}
