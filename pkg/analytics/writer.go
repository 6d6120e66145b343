package analytics

import (
	"github.com/calvinalkan/testa/pkg/testrun"
)

// Writer is the mutable aggregation state.
//
// It owns all of its storage; seeding from a View copies everything out of
// the view's buffer. A writer must not be used from multiple goroutines.
type Writer struct {
	numDays int

	strings *StringTable
	flags   *FlagSet

	// timestamp is "today" in day units. Monotonically non-decreasing.
	timestamp uint32

	tests *testIndex

	// testdata holds the day buckets in row-major (test, day offset)
	// order. len(testdata) == tests.len() * numDays at all times.
	testdata []TestData
}

// NewWriter creates an empty writer with a ring of numDays buckets per test.
func NewWriter(numDays int) *Writer {
	return &Writer{
		numDays: numDays,
		strings: NewStringTable(),
		flags:   NewFlagSet(),
		tests:   newTestIndex(0),
	}
}

// FromView turns a parsed artifact into a writer.
//
// All tables and buckets are copied; the view and its buffer stay untouched.
func FromView(v *View) (*Writer, error) {
	strings, err := StringTableFromBytes(append([]byte(nil), v.stringBytes...))
	if err != nil {
		return nil, err
	}

	flags, err := FlagSetFromBytes(v.flagsSetBytes)
	if err != nil {
		return nil, err
	}

	numTests := int(v.header.NumTests)
	tests := newTestIndex(numTests)

	for i := range numTests {
		tests.insert(v.Test(i))
	}

	testdata := make([]TestData, numTests*int(v.header.NumDays))
	for i := range testdata {
		testdata[i] = decodeTestData(v.testdataBytes[i*testDataSize:])
	}

	return &Writer{
		numDays:   int(v.header.NumDays),
		strings:   strings,
		flags:     flags,
		timestamp: v.header.Timestamp,
		tests:     tests,
		testdata:  testdata,
	}, nil
}

// NumDays returns the current ring size.
func (w *Writer) NumDays() int {
	return w.numDays
}

// Timestamp returns the writer's "today" in day units.
func (w *Writer) Timestamp() uint32 {
	return w.timestamp
}

// NumTests returns the number of distinct test keys.
func (w *Writer) NumTests() int {
	return w.tests.len()
}

// Session inserts test runs under one fixed timestamp and flag set.
type Session struct {
	w *Writer

	flagSetOffset uint32
}

// StartSession advances the writer's timestamp to at least timestamp,
// interns flags, and returns a session bound to the resulting flag set.
func (w *Writer) StartSession(timestamp uint32, flags []string) *Session {
	if timestamp > w.timestamp {
		w.timestamp = timestamp
	}

	return &Session{
		w:             w,
		flagSetOffset: w.flags.Insert(w.strings, flags),
	}
}

// Insert records one test run into today's bucket of the run's test key.
//
// Existing rings are shifted so that bucket 0 represents the writer's
// current timestamp before the counts are applied.
func (s *Session) Insert(run *testrun.Testrun) {
	w := s.w

	key := Test{
		TestsuiteOffset: w.strings.Insert(run.Testsuite),
		NameOffset:      w.strings.Insert(run.Name),
		FlagSetOffset:   s.flagSetOffset,
	}

	idx, inserted := w.tests.insert(key)
	dataIdx := idx * w.numDays

	if inserted {
		w.testdata = append(w.testdata, make([]TestData, w.numDays)...)
	} else {
		// Bucket 0's last_timestamp anchors the whole ring.
		shift := offsetFromToday(w.testdata[dataIdx].LastTimestamp, w.timestamp)
		shiftData(w.testdata[dataIdx:dataIdx+w.numDays], shift)
	}

	bucket := &w.testdata[dataIdx]
	bucket.TotalDuration += float32(run.Duration)

	if bucket.LastTimestamp <= w.timestamp {
		bucket.LastTimestamp = w.timestamp
		bucket.LastDuration = float32(run.Duration)
	}

	switch run.Outcome {
	case testrun.OutcomePass:
		bucket.TotalPassCount++
	case testrun.OutcomeFailure, testrun.OutcomeError:
		bucket.TotalFailCount++
	case testrun.OutcomeSkip:
		bucket.TotalSkipCount++
	}
}
