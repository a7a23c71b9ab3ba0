// Package query builds the scoring prompt from a persona and a job-to-be-done.
package query

import "docrank/internal/domain"

// Build combines persona and job into the prompt used verbatim for scoring.
// Empty inputs are accepted and simply produce a low-information prompt.
func Build(persona, job string) domain.Query {
	return domain.Query{
		Persona: persona,
		Job:     job,
		Prompt:  persona + ". Task: " + job,
	}
}
