package analytics

import (
	"encoding/binary"
	"fmt"
)

// View is a read-only parsed artifact.
//
// All sections are borrowed sub-slices of the buffer handed to Parse; the
// view is valid only as long as that buffer is. Views never mutate the
// buffer and may be shared across goroutines.
type View struct {
	header header

	testsBytes    []byte
	testdataBytes []byte
	flagsSetBytes []byte
	stringBytes   []byte
}

// Parse validates buf as a TSTA artifact and returns a view over it.
//
// Fails with ErrInvalidFormat on bad magic, version mismatch, truncated
// sections, or trailing data.
func Parse(buf []byte) (*View, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for the header", ErrInvalidFormat, len(buf))
	}

	if string(buf[offMagic:offMagic+4]) != tstaMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, buf[offMagic:offMagic+4])
	}

	if version := binary.LittleEndian.Uint32(buf[offVersion:]); version != tstaVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, version)
	}

	h := decodeHeader(buf)

	// Section sizes in uint64 so oversized headers cannot overflow.
	testsLen := uint64(h.NumTests) * testSize
	testdataLen := uint64(h.NumTests) * uint64(h.NumDays) * testDataSize
	total := headerSize + testsLen + testdataLen + uint64(h.FlagsSetLen) + uint64(h.StringBytes)

	if total != uint64(len(buf)) {
		return nil, fmt.Errorf("%w: header describes %d bytes, artifact has %d",
			ErrInvalidFormat, total, len(buf))
	}

	if h.FlagsSetLen%4 != 0 {
		return nil, fmt.Errorf("%w: flag-set table length %d is not a multiple of 4",
			ErrInvalidFormat, h.FlagsSetLen)
	}

	testsStart := uint64(headerSize)
	testdataStart := testsStart + testsLen
	flagsStart := testdataStart + testdataLen
	stringsStart := flagsStart + uint64(h.FlagsSetLen)

	return &View{
		header:        h,
		testsBytes:    buf[testsStart:testdataStart],
		testdataBytes: buf[testdataStart:flagsStart],
		flagsSetBytes: buf[flagsStart:stringsStart],
		stringBytes:   buf[stringsStart:],
	}, nil
}

// Timestamp returns the artifact's "today" in day units.
func (v *View) Timestamp() uint32 {
	return v.header.Timestamp
}

// NumDays returns the ring size N.
func (v *View) NumDays() int {
	return int(v.header.NumDays)
}

// NumTests returns the number of test records.
func (v *View) NumTests() int {
	return int(v.header.NumTests)
}

// Test decodes the i-th test record.
func (v *View) Test(i int) Test {
	return decodeTest(v.testsBytes[i*testSize:])
}

// Bucket decodes the day bucket of test i at the given day offset.
func (v *View) Bucket(i, dayOffset int) TestData {
	return decodeTestData(v.testdataBytes[(i*v.NumDays()+dayOffset)*testDataSize:])
}

// ResolveString reads a string-table offset.
func (v *View) ResolveString(offset uint32) (string, error) {
	return ReadString(v.stringBytes, offset)
}

// ResolveFlagSet reads a flag-set offset and resolves each flag string.
func (v *View) ResolveFlagSet(offset uint32) ([]string, error) {
	return resolveFlagSet(v.flagWords(), v.stringBytes, offset)
}

// FlagSets returns every stored flag set with its word offset.
func (v *View) FlagSets() ([]Entry, error) {
	return allFlagSets(v.flagWords(), v.stringBytes)
}

// flagWords decodes the flag-set section into words. The result is a copy;
// the section itself stays borrowed.
func (v *View) flagWords() []uint32 {
	words := make([]uint32, len(v.flagsSetBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(v.flagsSetBytes[i*4:])
	}

	return words
}
