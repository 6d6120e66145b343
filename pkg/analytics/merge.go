package analytics

import "fmt"

// Merge combines two parsed artifacts into a fresh writer.
//
// The artifact with the greater (num_tests, num_days), compared
// lexicographically, seeds the writer; the other is folded in test by test,
// re-interning its strings and flag sets and realigning its day rings to
// the writer's anchors. Summed counters are order-independent; on a
// last-timestamp tie the folded-in artifact wins the last_* fields, so
// callers who need full determinism should order their merges.
func Merge(a, b *View) (*Writer, error) {
	larger, smaller := a, b
	if (b.header.NumTests > a.header.NumTests) ||
		(b.header.NumTests == a.header.NumTests && b.header.NumDays > a.header.NumDays) {
		larger, smaller = b, a
	}

	w, err := FromView(larger)
	if err != nil {
		return nil, err
	}

	if ts := smaller.Timestamp(); ts > w.timestamp {
		w.timestamp = ts
	}

	// Assume a 75% overlap, i.e. 25% new unique tests.
	expectedNew := smaller.NumTests() / 4
	w.testdata = append(
		make([]TestData, 0, len(w.testdata)+expectedNew*w.numDays),
		w.testdata...)

	smallerSets, err := smaller.FlagSets()
	if err != nil {
		return nil, err
	}

	flagsMapping := make(map[uint32]uint32, len(smallerSets))
	for _, entry := range smallerSets {
		flagsMapping[entry.Offset] = w.flags.Insert(w.strings, entry.Flags)
	}

	smallerDays := smaller.NumDays()

	for smallerIdx := range smaller.NumTests() {
		test := smaller.Test(smallerIdx)

		testsuite, err := smaller.ResolveString(test.TestsuiteOffset)
		if err != nil {
			return nil, err
		}

		name, err := smaller.ResolveString(test.NameOffset)
		if err != nil {
			return nil, err
		}

		flagSetOffset, ok := flagsMapping[test.FlagSetOffset]
		if !ok {
			return nil, fmt.Errorf("%w: unmapped offset %d", ErrInvalidFlagSetReference, test.FlagSetOffset)
		}

		idx, inserted := w.tests.insert(Test{
			TestsuiteOffset: w.strings.Insert(testsuite),
			NameOffset:      w.strings.Insert(name),
			FlagSetOffset:   flagSetOffset,
		})

		dataIdx := idx * w.numDays
		smallerData := smallerIdx * smallerDays
		smallerTimestamp := smaller.Bucket(smallerIdx, 0).LastTimestamp

		var largerTimestamp uint32
		if inserted {
			w.testdata = append(w.testdata, make([]TestData, w.numDays)...)
			largerTimestamp = smallerTimestamp
		} else {
			largerTimestamp = w.testdata[dataIdx].LastTimestamp
		}

		var srcStart, srcEnd, todayOffset int

		if smallerTimestamp > largerTimestamp {
			// The source ring is fresher; re-anchor the writer's ring to it.
			shift := offsetFromToday(largerTimestamp, smallerTimestamp)
			shiftData(w.testdata[dataIdx:dataIdx+w.numDays], shift)

			srcStart, srcEnd = adjustSelectionRange(smallerData, smallerData+smallerDays, w.numDays, 0)
			todayOffset = 0
		} else {
			todayOffset = offsetFromToday(smallerTimestamp, largerTimestamp)
			srcStart, srcEnd = adjustSelectionRange(smallerData, smallerData+smallerDays, w.numDays, todayOffset)
		}

		overlap := srcEnd - srcStart
		if overlap == 0 {
			// The source ring lies entirely outside the writer's window.
			continue
		}

		dst := w.testdata[dataIdx+todayOffset : dataIdx+todayOffset+overlap]

		for i := range dst {
			src := smaller.Bucket(smallerIdx, srcStart-smallerData+i)
			d := &dst[i]

			d.TotalPassCount += src.TotalPassCount
			d.TotalFailCount += src.TotalFailCount
			d.TotalSkipCount += src.TotalSkipCount
			d.TotalFlakyFailCount += src.TotalFlakyFailCount
			d.TotalDuration += src.TotalDuration

			if src.LastTimestamp >= d.LastTimestamp {
				d.LastTimestamp = src.LastTimestamp
				d.LastDuration = src.LastDuration
			}
		}
	}

	return w, nil
}
