package analytics_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/calvinalkan/testa/pkg/analytics"
	"github.com/calvinalkan/testa/pkg/testrun"
)

func serialize(t *testing.T, w *analytics.Writer) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := w.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	return buf.Bytes()
}

func parse(t *testing.T, data []byte) *analytics.View {
	t.Helper()

	v, err := analytics.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	return v
}

func TestSerializeParseRoundTrip(t *testing.T) {
	t.Parallel()

	w := analytics.NewWriter(7)

	s := w.StartSession(100, []string{"linux", "py311"})
	s.Insert(run("suite-a", "test-1", 0.5, testrun.OutcomePass))
	s.Insert(run("suite-a", "test-2", 1.25, testrun.OutcomeFailure))

	s = w.StartSession(101, nil)
	s.Insert(run("suite-b", "test-3", 0.125, testrun.OutcomeSkip))

	v := parse(t, serialize(t, w))

	if v.Timestamp() != 101 || v.NumDays() != 7 || v.NumTests() != 3 {
		t.Fatalf("header = (ts %d, days %d, tests %d), want (101, 7, 3)",
			v.Timestamp(), v.NumDays(), v.NumTests())
	}

	for i := range v.NumTests() {
		test := v.Test(i)

		suite, err := v.ResolveString(test.TestsuiteOffset)
		if err != nil {
			t.Fatalf("resolving testsuite of %d: %v", i, err)
		}

		name, err := v.ResolveString(test.NameOffset)
		if err != nil {
			t.Fatalf("resolving name of %d: %v", i, err)
		}

		flags, err := v.ResolveFlagSet(test.FlagSetOffset)
		if err != nil {
			t.Fatalf("resolving flags of %d: %v", i, err)
		}

		want := map[string][]string{
			"suite-a/test-1": {"linux", "py311"},
			"suite-a/test-2": {"linux", "py311"},
			"suite-b/test-3": {},
		}

		key := suite + "/" + name

		wantFlags, ok := want[key]
		if !ok {
			t.Fatalf("unexpected test %q", key)
		}

		if fmt.Sprint(flags) != fmt.Sprint(wantFlags) {
			t.Errorf("%q flags = %v, want %v", key, flags, wantFlags)
		}
	}

	if got := v.Bucket(1, 0).TotalFailCount; got != 1 {
		t.Errorf("test 1 fail count = %d, want 1", got)
	}
}

// A writer seeded from a view serializes to the identical bytes.
func TestFromViewPreservesBytes(t *testing.T) {
	t.Parallel()

	w := analytics.NewWriter(3)

	s := w.StartSession(50, []string{"windows"})
	s.Insert(run("s", "a", 1, testrun.OutcomePass))
	s.Insert(run("s", "b", 2, testrun.OutcomeError))

	data := serialize(t, w)

	seeded, err := analytics.FromView(parse(t, data))
	if err != nil {
		t.Fatalf("FromView: %v", err)
	}

	if !bytes.Equal(data, serialize(t, seeded)) {
		t.Error("re-serialized bytes differ from the original artifact")
	}
}

func TestParseRejectsMalformedArtifacts(t *testing.T) {
	t.Parallel()

	w := analytics.NewWriter(7)
	w.StartSession(100, nil).Insert(run("s", "t", 0.5, testrun.OutcomePass))

	valid := serialize(t, w)

	for _, tt := range []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"empty input", func(b []byte) []byte { return nil }},
		{"short header", func(b []byte) []byte { return b[:10] }},
		{
			"bad magic", func(b []byte) []byte {
				b[0] = 'X'
				return b
			},
		},
		{
			"unsupported version", func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[4:], 99)
				return b
			},
		},
		{"truncated section", func(b []byte) []byte { return b[:len(b)-3] }},
		{"trailing data", func(b []byte) []byte { return append(b, 0xAB) }},
		{
			"oversized test count", func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[16:], 0xFFFFFFFF)
				return b
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := tt.mutate(append([]byte(nil), valid...))

			_, err := analytics.Parse(data)
			if !errors.Is(err, analytics.ErrInvalidFormat) {
				t.Errorf("err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

// Round-trip property: serialize → parse → seed → serialize is a fixpoint
// for arbitrary writers.
func TestRoundTripFixpointWithSeededInserts(t *testing.T) {
	t.Parallel()

	suites := []string{"auth", "billing", "search"}
	names := []string{"login", "logout", "renew", "index", "query"}
	flagPool := [][]string{nil, {"linux"}, {"macos", "arm64"}, {"linux", "py312"}}
	outcomes := []testrun.Outcome{
		testrun.OutcomePass, testrun.OutcomeFailure, testrun.OutcomeError, testrun.OutcomeSkip,
	}

	for seed := uint64(1); seed <= 10; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(seed, seed))

			w := analytics.NewWriter(1 + rng.IntN(14))
			ts := uint32(1 + rng.IntN(100))

			for range 20 {
				ts += uint32(rng.IntN(3))
				s := w.StartSession(ts, flagPool[rng.IntN(len(flagPool))])

				for range 1 + rng.IntN(10) {
					s.Insert(run(
						suites[rng.IntN(len(suites))],
						names[rng.IntN(len(names))],
						float64(rng.IntN(1000))/100,
						outcomes[rng.IntN(len(outcomes))],
					))
				}
			}

			data := serialize(t, w)

			seeded, err := analytics.FromView(parse(t, data))
			if err != nil {
				t.Fatalf("FromView: %v", err)
			}

			if !bytes.Equal(data, serialize(t, seeded)) {
				t.Error("round trip is not a fixpoint")
			}

			if got, want := seeded.TestdataLen(), seeded.NumTests()*seeded.NumDays(); got != want {
				t.Errorf("len(testdata) = %d, want %d", got, want)
			}
		})
	}
}
