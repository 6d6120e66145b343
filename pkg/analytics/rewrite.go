package analytics

// DefaultGarbageThreshold selects the default rewrite threshold of a
// quarter of the stored tests.
const DefaultGarbageThreshold = -1

// Rewrite garbage-collects the writer: tests whose most recent activity is
// numDays or more days old are dropped, the day window is resized to
// numDays, and the interning tables are rebuilt so orphaned strings and
// flag sets disappear.
//
// When no resize is needed, the pass only runs if the number of dead tests
// exceeds garbageThreshold (pass DefaultGarbageThreshold for |tests|/4).
// Returns whether a rewrite happened.
//
// Surviving rings keep their first min(old, new) buckets verbatim; bucket
// timestamps are not re-anchored. The liveness filter guarantees every
// surviving ring's anchor still fits the new window.
//
// On a reference-resolution error the writer is left empty; callers are
// expected to discard it.
func (w *Writer) Rewrite(numDays int, timestamp uint32, garbageThreshold int) (bool, error) {
	if timestamp > w.timestamp {
		w.timestamp = timestamp
	}

	needsResize := numDays != w.numDays

	threshold := garbageThreshold
	if threshold < 0 {
		threshold = w.tests.len() / 4
	}

	liveness := make([]bool, w.tests.len())
	liveCount := 0

	for idx := range liveness {
		anchor := w.testdata[idx*w.numDays].LastTimestamp
		if offsetFromToday(anchor, w.timestamp) < numDays {
			liveness[idx] = true
			liveCount++
		}
	}

	deadCount := w.tests.len() - liveCount
	if !needsResize && deadCount <= threshold {
		return false, nil
	}

	oldNumDays := w.numDays
	oldStrings := w.strings
	oldFlags := w.flags
	oldTests := w.tests
	oldTestdata := w.testdata

	w.numDays = numDays
	w.strings = NewStringTable()
	w.flags = NewFlagSet()
	w.tests = newTestIndex(liveCount)
	w.testdata = make([]TestData, 0, liveCount*numDays)

	flagsMapping := make(map[uint32]uint32, oldFlags.Len())
	oldStringBytes := oldStrings.Bytes()

	for oldIdx, test := range oldTests.keys {
		if !liveness[oldIdx] {
			continue
		}

		flagSetOffset, ok := flagsMapping[test.FlagSetOffset]
		if !ok {
			flags, err := oldFlags.Resolve(oldStringBytes, test.FlagSetOffset)
			if err != nil {
				w.reset()
				return false, err
			}

			flagSetOffset = w.flags.Insert(w.strings, flags)
			flagsMapping[test.FlagSetOffset] = flagSetOffset
		}

		testsuite, err := ReadString(oldStringBytes, test.TestsuiteOffset)
		if err != nil {
			w.reset()
			return false, err
		}

		name, err := ReadString(oldStringBytes, test.NameOffset)
		if err != nil {
			w.reset()
			return false, err
		}

		_, inserted := w.tests.insert(Test{
			TestsuiteOffset: w.strings.Insert(testsuite),
			NameOffset:      w.strings.Insert(name),
			FlagSetOffset:   flagSetOffset,
		})
		if !inserted {
			// The old index held unique keys and re-interning is injective.
			panic("analytics: rewrite re-inserted an existing test")
		}

		overlapDays := min(oldNumDays, w.numDays)
		oldData := oldIdx * oldNumDays

		w.testdata = append(w.testdata, oldTestdata[oldData:oldData+overlapDays]...)
		w.testdata = append(w.testdata, make([]TestData, w.numDays-overlapDays)...)
	}

	return true, nil
}

// reset empties the writer after a failed table rebuild.
func (w *Writer) reset() {
	w.strings = NewStringTable()
	w.flags = NewFlagSet()
	w.tests = newTestIndex(0)
	w.testdata = nil
}
