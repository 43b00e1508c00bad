// Package gate holds the pre-transition validation checks a submission must
// pass before the DRAFT → SUBMITTED move is attempted. Gates are pure
// functions: no I/O, no side effects, all inputs as arguments.
package gate

import (
	"simkah/internal/domain"
	"simkah/internal/scenario"
	dErrors "simkah/pkg/domain-errors"
)

// ValidateDocuments checks the uploaded document set against the scenario's
// required set. On failure the error enumerates every missing type at once so
// the clerk gets the full list in a single response.
//
// Errors: CodeNotFound for an unknown scenario, CodeIncompleteDocuments with
// a "missing" detail otherwise.
func ValidateDocuments(scenarioID int, uploaded []domain.DocType) error {
	def, err := scenario.Get(scenarioID)
	if err != nil {
		return err
	}

	present := make(map[domain.DocType]bool, len(uploaded))
	for _, d := range uploaded {
		present[d] = true
	}

	var missing []string
	for _, required := range def.RequiredDocs {
		if !present[required] {
			missing = append(missing, required.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return dErrors.New(dErrors.CodeIncompleteDocuments, "required documents are missing").
		WithDetail("scenario_id", scenarioID).
		WithDetail("missing", missing)
}
