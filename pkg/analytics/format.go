package analytics

import (
	"encoding/binary"
	"math"
)

// TSTA file format constants.
const (
	// Magic bytes at the start of every artifact.
	tstaMagic = "TSTA"

	// File format version.
	tstaVersion = 1

	// Fixed section record sizes in bytes.
	headerSize   = 28
	testSize     = 12
	testDataSize = 28
)

// Header field offsets (bytes from artifact start).
const (
	offMagic       = 0x00 // [4]byte
	offVersion     = 0x04 // uint32
	offTimestamp   = 0x08 // uint32, "today" in day units
	offNumDays     = 0x0C // uint32
	offNumTests    = 0x10 // uint32
	offFlagsSetLen = 0x14 // uint32, byte length of the flag-set table
	offStringBytes = 0x18 // uint32, byte length of the string table
)

// header is the decoded 28-byte artifact header.
type header struct {
	Timestamp   uint32
	NumDays     uint32
	NumTests    uint32
	FlagsSetLen uint32
	StringBytes uint32
}

// Test is one index key: three offsets into the interning tables.
//
// Two tests are equal iff all three offsets are equal. The struct is the
// on-disk record; field order and widths are frozen.
type Test struct {
	TestsuiteOffset uint32
	NameOffset      uint32
	FlagSetOffset   uint32
}

// TestData is one day bucket. Plain old data; field order and widths are
// frozen for on-disk compatibility.
type TestData struct {
	TotalPassCount      uint32
	TotalFailCount      uint32
	TotalSkipCount      uint32
	TotalFlakyFailCount uint32
	TotalDuration       float32
	LastDuration        float32
	LastTimestamp       uint32
}

func encodeHeader(buf []byte, h header) {
	copy(buf[offMagic:], tstaMagic)
	binary.LittleEndian.PutUint32(buf[offVersion:], tstaVersion)
	binary.LittleEndian.PutUint32(buf[offTimestamp:], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[offNumDays:], h.NumDays)
	binary.LittleEndian.PutUint32(buf[offNumTests:], h.NumTests)
	binary.LittleEndian.PutUint32(buf[offFlagsSetLen:], h.FlagsSetLen)
	binary.LittleEndian.PutUint32(buf[offStringBytes:], h.StringBytes)
}

func decodeHeader(buf []byte) header {
	return header{
		Timestamp:   binary.LittleEndian.Uint32(buf[offTimestamp:]),
		NumDays:     binary.LittleEndian.Uint32(buf[offNumDays:]),
		NumTests:    binary.LittleEndian.Uint32(buf[offNumTests:]),
		FlagsSetLen: binary.LittleEndian.Uint32(buf[offFlagsSetLen:]),
		StringBytes: binary.LittleEndian.Uint32(buf[offStringBytes:]),
	}
}

func encodeTest(buf []byte, t Test) {
	binary.LittleEndian.PutUint32(buf[0:], t.TestsuiteOffset)
	binary.LittleEndian.PutUint32(buf[4:], t.NameOffset)
	binary.LittleEndian.PutUint32(buf[8:], t.FlagSetOffset)
}

func decodeTest(buf []byte) Test {
	return Test{
		TestsuiteOffset: binary.LittleEndian.Uint32(buf[0:]),
		NameOffset:      binary.LittleEndian.Uint32(buf[4:]),
		FlagSetOffset:   binary.LittleEndian.Uint32(buf[8:]),
	}
}

func encodeTestData(buf []byte, d TestData) {
	binary.LittleEndian.PutUint32(buf[0:], d.TotalPassCount)
	binary.LittleEndian.PutUint32(buf[4:], d.TotalFailCount)
	binary.LittleEndian.PutUint32(buf[8:], d.TotalSkipCount)
	binary.LittleEndian.PutUint32(buf[12:], d.TotalFlakyFailCount)
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(d.TotalDuration))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(d.LastDuration))
	binary.LittleEndian.PutUint32(buf[24:], d.LastTimestamp)
}

func decodeTestData(buf []byte) TestData {
	return TestData{
		TotalPassCount:      binary.LittleEndian.Uint32(buf[0:]),
		TotalFailCount:      binary.LittleEndian.Uint32(buf[4:]),
		TotalSkipCount:      binary.LittleEndian.Uint32(buf[8:]),
		TotalFlakyFailCount: binary.LittleEndian.Uint32(buf[12:]),
		TotalDuration:       math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])),
		LastDuration:        math.Float32frombits(binary.LittleEndian.Uint32(buf[20:])),
		LastTimestamp:       binary.LittleEndian.Uint32(buf[24:]),
	}
}
