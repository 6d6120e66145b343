package analytics

// Test-only accessors into writer internals.

func (w *Writer) TestdataLen() int {
	return len(w.testdata)
}

func (w *Writer) BucketAt(i, dayOffset int) TestData {
	return w.testdata[i*w.numDays+dayOffset]
}

func (w *Writer) TestAt(i int) Test {
	return w.tests.keys[i]
}

func (w *Writer) StringBytes() []byte {
	return w.strings.Bytes()
}

func (w *Writer) FlagsTable() *FlagSet {
	return w.flags
}

var (
	OffsetFromToday      = offsetFromToday
	ShiftData            = shiftData
	AdjustSelectionRange = adjustSelectionRange
)
