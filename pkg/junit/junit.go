// Package junit parses JUnit XML reports into test-run records.
//
// The parser is a streaming token reader: it tolerates nested testsuite
// elements, testcases with or without bodies, and failure details given
// either as a message attribute or as element text. Testcases with
// over-long identifying attributes are skipped with a warning instead of
// failing the whole report.
package junit

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/calvinalkan/testa/pkg/testrun"
)

var errNameMissing = errors.New("junit: testcase has no name attribute")

// Warning is a non-fatal parse diagnostic.
type Warning struct {
	Message string
	// Line in the input, 1-based, 0 when unknown.
	Line int
}

// Result is the outcome of parsing one report.
type Result struct {
	// Framework detected from the report, valid when HasFramework.
	Framework    testrun.Framework
	HasFramework bool

	Testruns []testrun.Testrun
	Warnings []Warning
}

// testcaseAttrs are the recognized <testcase> attributes.
type testcaseAttrs struct {
	name      string
	time      string
	hasTime   bool
	classname string
	file      string
}

// Parse reads a JUnit XML document from r.
func Parse(r io.Reader) (*Result, error) {
	dec := xml.NewDecoder(r)

	res := &Result{}

	// One entry per open <testsuite>; a testcase inherits the innermost
	// non-empty name and the innermost non-empty time.
	var suiteNames []string
	var suiteTimes []string

	var saved *testrun.Testrun
	savedSkipped := false
	inFailureOrError := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("junit: parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "testcase":
				attrs, err := parseTestcaseAttrs(t)
				if errors.Is(err, testrun.ErrFieldTooLong) {
					res.Warnings = append(res.Warnings, Warning{
						Message: fmt.Sprintf("skipping testcase: %v", err),
						Line:    inputLine(dec),
					})
					saved = nil
					savedSkipped = true

					continue
				}

				if err != nil {
					return nil, err
				}

				run := populate(attrs, innermost(suiteNames), innermost(suiteTimes), res)
				saved = &run
				savedSkipped = false

			case "skipped":
				if saved == nil && !savedSkipped {
					return nil, fmt.Errorf("junit: <skipped> outside a testcase")
				}

				if saved != nil {
					saved.Outcome = testrun.OutcomeSkip
				}

			case "failure", "error":
				if saved == nil && !savedSkipped {
					return nil, fmt.Errorf("junit: <%s> outside a testcase", t.Name.Local)
				}

				if saved != nil {
					if t.Name.Local == "error" {
						saved.Outcome = testrun.OutcomeError
					} else {
						saved.Outcome = testrun.OutcomeFailure
					}

					if msg, ok := attr(t, "message"); ok {
						saved.FailureMessage = msg
					}
				}

				inFailureOrError = true

			case "testsuite":
				name, _ := attr(t, "name")
				if err := testrun.ValidateField(name); err != nil {
					return nil, fmt.Errorf("junit: testsuite name: %w", err)
				}

				suiteNames = append(suiteNames, name)

				time, _ := attr(t, "time")
				suiteTimes = append(suiteTimes, time)

			case "testsuites":
				if name, ok := attr(t, "name"); ok {
					res.Framework, res.HasFramework = testrun.CheckTestsuitesName(name)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "testcase":
				if saved == nil && !savedSkipped {
					return nil, fmt.Errorf("junit: </testcase> without opening tag")
				}

				if saved != nil {
					res.Testruns = append(res.Testruns, *saved)
				}

				saved = nil
				savedSkipped = false

			case "failure", "error":
				inFailureOrError = false

			case "testsuite":
				suiteNames = suiteNames[:len(suiteNames)-1]
				suiteTimes = suiteTimes[:len(suiteTimes)-1]
			}

		case xml.CharData:
			if inFailureOrError && saved != nil {
				if text := strings.TrimSpace(string(t)); text != "" {
					saved.FailureMessage = text
				}
			}
		}
	}

	return res, nil
}

// parseTestcaseAttrs extracts and validates the testcase attributes.
func parseTestcaseAttrs(e xml.StartElement) (testcaseAttrs, error) {
	var attrs testcaseAttrs

	hasName := false

	for _, a := range e.Attr {
		switch a.Name.Local {
		case "name":
			if err := testrun.ValidateField(a.Value); err != nil {
				return attrs, fmt.Errorf("name: %w", err)
			}

			attrs.name = a.Value
			hasName = true
		case "time":
			attrs.time = a.Value
			attrs.hasTime = true
		case "classname":
			if err := testrun.ValidateField(a.Value); err != nil {
				return attrs, fmt.Errorf("classname: %w", err)
			}

			attrs.classname = a.Value
		case "file":
			if err := testrun.ValidateField(a.Value); err != nil {
				return attrs, fmt.Errorf("file: %w", err)
			}

			attrs.file = a.Value
		}
	}

	if !hasName {
		return attrs, errNameMissing
	}

	return attrs, nil
}

// populate builds a Testrun from testcase attributes and suite context,
// updating the result's detected framework on first detection.
func populate(attrs testcaseAttrs, suiteName, suiteTime string, res *Result) testrun.Testrun {
	run := testrun.Testrun{
		Testsuite: suiteName,
		Name:      attrs.name,
		Classname: attrs.classname,
		Outcome:   testrun.OutcomePass,
		Filename:  attrs.file,
	}

	timeStr := attrs.time
	if !attrs.hasTime {
		timeStr = suiteTime
	}

	if d, err := strconv.ParseFloat(timeStr, 64); err == nil {
		run.Duration = d
	}

	if !res.HasFramework {
		res.Framework, res.HasFramework = run.Framework()
	}

	run.ComputedName = computeName(run.Classname, run.Name)

	return run
}

// computeName joins classname and name the way report UIs display tests.
func computeName(classname, name string) string {
	if classname == "" {
		return name
	}

	return classname + "::" + name
}

// innermost returns the last non-empty entry of a suite stack.
func innermost(stack []string) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] != "" {
			return stack[i]
		}
	}

	return ""
}

// attr fetches a single attribute by local name.
func attr(e xml.StartElement, name string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}

	return "", false
}

// inputLine reports the decoder's current line for warnings.
func inputLine(dec *xml.Decoder) int {
	line, _ := dec.InputPos()
	return line
}
