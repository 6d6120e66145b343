// Package vitest parses Vitest/Jest JSON reports into test-run records.
package vitest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/calvinalkan/testa/pkg/testrun"
)

type assertionResult struct {
	AncestorTitles []string `json:"ancestorTitles"`
	FullName       string   `json:"fullName"`
	Status         string   `json:"status"`
	Title          string   `json:"title"`
	// Duration in milliseconds.
	Duration int64 `json:"duration"`
}

type testResult struct {
	AssertionResults []assertionResult `json:"assertionResults"`
	Name             string            `json:"name"`
}

type report struct {
	TestResults []testResult `json:"testResults"`
}

// Parse reads a report produced by `vitest --reporter=json` (or jest
// --json). Every assertion becomes one Testrun; the enclosing file name is
// the testsuite.
func Parse(r io.Reader) ([]testrun.Testrun, error) {
	var rep report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("vitest: decoding report: %w", err)
	}

	var runs []testrun.Testrun

	for _, result := range rep.TestResults {
		for _, a := range result.AssertionResults {
			outcome, err := mapStatus(a.Status)
			if err != nil {
				return nil, err
			}

			runs = append(runs, testrun.Testrun{
				Testsuite: result.Name,
				Name:      a.FullName,
				Duration:  float64(a.Duration) / 1000.0,
				Outcome:   outcome,
			})
		}
	}

	return runs, nil
}

func mapStatus(status string) (testrun.Outcome, error) {
	switch status {
	case "passed":
		return testrun.OutcomePass, nil
	case "failed":
		return testrun.OutcomeFailure, nil
	case "pending":
		return testrun.OutcomeSkip, nil
	default:
		return 0, fmt.Errorf("vitest: unknown assertion status %q", status)
	}
}
