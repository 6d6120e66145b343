package analytics

import "io"

// Serialize writes the artifact to sink: header, test records, day
// buckets, flag-set table, string table, back to back with no padding.
//
// The writer stays usable afterwards. Errors are the sink's own.
func (w *Writer) Serialize(sink io.Writer) error {
	flagsSetBytes := w.flags.Bytes()
	stringBytes := w.strings.Bytes()

	var headerBuf [headerSize]byte

	encodeHeader(headerBuf[:], header{
		Timestamp:   w.timestamp,
		NumDays:     uint32(w.numDays),
		NumTests:    uint32(w.tests.len()),
		FlagsSetLen: uint32(len(flagsSetBytes)),
		StringBytes: uint32(len(stringBytes)),
	})

	if _, err := sink.Write(headerBuf[:]); err != nil {
		return err
	}

	testsBuf := make([]byte, w.tests.len()*testSize)
	for i, t := range w.tests.keys {
		encodeTest(testsBuf[i*testSize:], t)
	}

	if _, err := sink.Write(testsBuf); err != nil {
		return err
	}

	testdataBuf := make([]byte, len(w.testdata)*testDataSize)
	for i, d := range w.testdata {
		encodeTestData(testdataBuf[i*testDataSize:], d)
	}

	if _, err := sink.Write(testdataBuf); err != nil {
		return err
	}

	if _, err := sink.Write(flagsSetBytes); err != nil {
		return err
	}

	_, err := sink.Write(stringBytes)

	return err
}
