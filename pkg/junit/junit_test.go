package junit_test

import (
	"strings"
	"testing"

	"github.com/calvinalkan/testa/pkg/junit"
	"github.com/calvinalkan/testa/pkg/testrun"
	"github.com/google/go-cmp/cmp"
)

func parse(t *testing.T, input string) *junit.Result {
	t.Helper()

	res, err := junit.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	return res
}

func TestParseOutcomes(t *testing.T) {
	t.Parallel()

	res := parse(t, `<?xml version="1.0"?>
<testsuites>
  <testsuite name="auth" time="3.5">
    <testcase name="test_login" classname="tests.AuthTest" time="0.5"/>
    <testcase name="test_logout" classname="tests.AuthTest" time="0.25">
      <failure message="assertion failed"/>
    </testcase>
    <testcase name="test_renew" classname="tests.AuthTest" time="0.125">
      <error message="boom"/>
    </testcase>
    <testcase name="test_admin" classname="tests.AuthTest">
      <skipped/>
    </testcase>
  </testsuite>
</testsuites>`)

	want := []testrun.Testrun{
		{
			Testsuite: "auth", Name: "test_login", Classname: "tests.AuthTest",
			Duration: 0.5, Outcome: testrun.OutcomePass,
			ComputedName: "tests.AuthTest::test_login",
		},
		{
			Testsuite: "auth", Name: "test_logout", Classname: "tests.AuthTest",
			Duration: 0.25, Outcome: testrun.OutcomeFailure,
			FailureMessage: "assertion failed",
			ComputedName:   "tests.AuthTest::test_logout",
		},
		{
			Testsuite: "auth", Name: "test_renew", Classname: "tests.AuthTest",
			Duration: 0.125, Outcome: testrun.OutcomeError,
			FailureMessage: "boom",
			ComputedName:   "tests.AuthTest::test_renew",
		},
		{
			Testsuite: "auth", Name: "test_admin", Classname: "tests.AuthTest",
			// No own time attribute: inherits the testsuite's.
			Duration: 3.5, Outcome: testrun.OutcomeSkip,
			ComputedName: "tests.AuthTest::test_admin",
		},
	}

	if diff := cmp.Diff(want, res.Testruns); diff != "" {
		t.Errorf("testruns mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFailureText(t *testing.T) {
	t.Parallel()

	res := parse(t, `
<testsuite name="s">
  <testcase name="t">
    <failure>
      Traceback (most recent call last)
    </failure>
  </testcase>
</testsuite>`)

	if len(res.Testruns) != 1 {
		t.Fatalf("got %d testruns, want 1", len(res.Testruns))
	}

	got := res.Testruns[0].FailureMessage
	if got != "Traceback (most recent call last)" {
		t.Errorf("FailureMessage = %q, want trimmed traceback", got)
	}
}

func TestParseNestedSuitesInheritInnermostName(t *testing.T) {
	t.Parallel()

	res := parse(t, `
<testsuites>
  <testsuite name="outer">
    <testsuite name="inner">
      <testcase name="a"/>
    </testsuite>
    <testcase name="b"/>
  </testsuite>
</testsuites>`)

	if len(res.Testruns) != 2 {
		t.Fatalf("got %d testruns, want 2", len(res.Testruns))
	}

	if got := res.Testruns[0].Testsuite; got != "inner" {
		t.Errorf("first testsuite = %q, want %q", got, "inner")
	}

	if got := res.Testruns[1].Testsuite; got != "outer" {
		t.Errorf("second testsuite = %q, want %q", got, "outer")
	}
}

func TestParseFrameworkFromTestsuitesName(t *testing.T) {
	t.Parallel()

	res := parse(t, `<testsuites name="jest tests"><testsuite name="s"><testcase name="t"/></testsuite></testsuites>`)

	if !res.HasFramework || res.Framework != testrun.FrameworkJest {
		t.Errorf("framework = (%v, %v), want Jest", res.Framework, res.HasFramework)
	}
}

func TestParseSkipsOverlongTestcaseWithWarning(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 1001)

	res := parse(t, `
<testsuite name="s">
  <testcase name="`+long+`"/>
  <testcase name="ok"/>
</testsuite>`)

	if len(res.Testruns) != 1 || res.Testruns[0].Name != "ok" {
		t.Fatalf("testruns = %+v, want only %q", res.Testruns, "ok")
	}

	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(res.Warnings))
	}

	if !strings.Contains(res.Warnings[0].Message, "skipping testcase") {
		t.Errorf("warning = %q, want a skip notice", res.Warnings[0].Message)
	}
}

func TestParseMissingNameIsAnError(t *testing.T) {
	t.Parallel()

	_, err := junit.Parse(strings.NewReader(`<testsuite name="s"><testcase time="1"/></testsuite>`))
	if err == nil {
		t.Fatal("Parse succeeded, want error for missing name")
	}
}

func TestParseMalformedXMLIsAnError(t *testing.T) {
	t.Parallel()

	_, err := junit.Parse(strings.NewReader(`<testsuite><testcase name="a">`))
	if err == nil {
		t.Fatal("Parse succeeded, want error for unclosed elements")
	}
}

// The parser must reject or tolerate arbitrary input, never panic, and
// never emit a run that violates the field-length validation.
func FuzzParse(f *testing.F) {
	f.Add(`<testsuites><testsuite name="s"><testcase name="t" time="0.5"/></testsuite></testsuites>`)
	f.Add(`<testsuite name="s"><testcase name="t"><failure message="m">body</failure></testcase></testsuite>`)
	f.Add(`<testsuite><testsuite name="inner"><testcase name="t"><skipped/></testcase></testsuite></testsuite>`)
	f.Add(`not xml at all`)

	f.Fuzz(func(t *testing.T, input string) {
		res, err := junit.Parse(strings.NewReader(input))
		if err != nil {
			return
		}

		for _, run := range res.Testruns {
			if verr := testrun.ValidateField(run.Name); verr != nil {
				t.Errorf("parsed run with invalid name: %v", verr)
			}

			if verr := testrun.ValidateField(run.Testsuite); verr != nil {
				t.Errorf("parsed run with invalid testsuite: %v", verr)
			}
		}
	})
}
