package testrun_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/calvinalkan/testa/pkg/testrun"
)

func TestOutcomeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, o := range []testrun.Outcome{
		testrun.OutcomePass, testrun.OutcomeFailure, testrun.OutcomeError, testrun.OutcomeSkip,
	} {
		got, err := testrun.ParseOutcome(o.String())
		if err != nil {
			t.Fatalf("ParseOutcome(%q): %v", o, err)
		}

		if got != o {
			t.Errorf("ParseOutcome(%q) = %v, want %v", o.String(), got, o)
		}
	}

	if _, err := testrun.ParseOutcome("flaky"); err == nil {
		t.Error("ParseOutcome(flaky) succeeded, want error")
	}
}

func TestValidateField(t *testing.T) {
	t.Parallel()

	if err := testrun.ValidateField(strings.Repeat("x", 1000)); err != nil {
		t.Errorf("1000 bytes rejected: %v", err)
	}

	err := testrun.ValidateField(strings.Repeat("x", 1001))
	if !errors.Is(err, testrun.ErrFieldTooLong) {
		t.Errorf("1001 bytes: err = %v, want ErrFieldTooLong", err)
	}
}

func TestCheckTestsuitesName(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name      string
		input     string
		want      testrun.Framework
		wantFound bool
	}{
		{"no match", "whatever", 0, false},
		{"match with boundary", "jest tests", testrun.FrameworkJest, true},
		{"case insensitive", "PyTest run", testrun.FrameworkPytest, true},
		{"no word boundary", "jester", 0, false},
		{"match at end", "vitest", testrun.FrameworkVitest, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := testrun.CheckTestsuitesName(tt.input)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}

			if found && got != tt.want {
				t.Errorf("framework = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameworkDetection(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		run  testrun.Testrun
		want testrun.Framework
	}{
		{"from testsuite", testrun.Testrun{Testsuite: "pytest"}, testrun.FrameworkPytest},
		{"from classname extension", testrun.Testrun{Classname: "tests/test_auth.py"}, testrun.FrameworkPytest},
		{"from name extension", testrun.Testrun{Name: "suite.py::test_x"}, testrun.FrameworkPytest},
		{"from failure message", testrun.Testrun{FailureMessage: "error in foo.py line 3"}, testrun.FrameworkPytest},
		{"from filename", testrun.Testrun{Filename: "src/FooTest.php"}, testrun.FrameworkPHPUnit},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := tt.run.Framework()
			if !found {
				t.Fatal("no framework detected")
			}

			if got != tt.want {
				t.Errorf("framework = %v, want %v", got, tt.want)
			}
		})
	}

	none := testrun.Testrun{Testsuite: "plain", Name: "t"}
	if _, found := none.Framework(); found {
		t.Error("framework detected on a plain run")
	}
}
