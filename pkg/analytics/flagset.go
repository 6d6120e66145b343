package analytics

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// FlagSet interns whole sets of flag strings.
//
// The backing table is a flat []uint32: an entry at word offset o is a
// count followed by count string-table offsets in ascending order. Insert
// canonicalizes (sorts and deduplicates) before lookup, so {a,b} and {b,a}
// share an offset. Word offset 0 is reserved for the empty set, interned at
// construction.
type FlagSet struct {
	table []uint32
	index map[string]uint32
}

// NewFlagSet returns a table with the empty set interned at offset 0.
func NewFlagSet() *FlagSet {
	fs := &FlagSet{
		index: make(map[string]uint32),
	}
	fs.internOffsets(nil)

	return fs
}

// FlagSetFromBytes reconstructs a flag-set table from its serialized form.
//
// The byte length must be a multiple of 4 and the entries must tile the
// table exactly.
func FlagSetFromBytes(buf []byte) (*FlagSet, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%w: flag-set table length %d is not a multiple of 4",
			ErrInvalidFlagSetReference, len(buf))
	}

	table := make([]uint32, len(buf)/4)
	for i := range table {
		table[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	fs := &FlagSet{
		table: table,
		index: make(map[string]uint32),
	}

	for off := 0; off < len(table); {
		count := int(table[off])
		if off+1+count > len(table) {
			return nil, fmt.Errorf("%w: truncated entry at word offset %d", ErrInvalidFlagSetReference, off)
		}

		key := setKey(table[off+1 : off+1+count])
		if _, ok := fs.index[key]; !ok {
			fs.index[key] = uint32(off)
		}

		off += 1 + count
	}

	return fs, nil
}

// Insert interns flags (after interning each string into st) and returns
// the word offset of the canonicalized set.
func (fs *FlagSet) Insert(st *StringTable, flags []string) uint32 {
	offsets := make([]uint32, 0, len(flags))
	for _, f := range flags {
		offsets = append(offsets, st.Insert(f))
	}

	slices.Sort(offsets)
	offsets = slices.Compact(offsets)

	return fs.internOffsets(offsets)
}

func (fs *FlagSet) internOffsets(offsets []uint32) uint32 {
	key := setKey(offsets)
	if off, ok := fs.index[key]; ok {
		return off
	}

	off := uint32(len(fs.table))
	fs.table = append(fs.table, uint32(len(offsets)))
	fs.table = append(fs.table, offsets...)
	fs.index[key] = off

	return off
}

// Resolve reads the set at the given word offset and resolves each string
// against stringBytes.
func (fs *FlagSet) Resolve(stringBytes []byte, offset uint32) ([]string, error) {
	return resolveFlagSet(fs.table, stringBytes, offset)
}

// Entry is one stored flag set, yielded by All.
type Entry struct {
	Offset uint32
	Flags  []string
}

// All returns every stored flag set in table order, one entry per distinct
// set.
func (fs *FlagSet) All(stringBytes []byte) ([]Entry, error) {
	return allFlagSets(fs.table, stringBytes)
}

// Len returns the number of distinct sets stored.
func (fs *FlagSet) Len() int {
	return len(fs.index)
}

// Bytes serializes the table as little-endian words.
func (fs *FlagSet) Bytes() []byte {
	buf := make([]byte, len(fs.table)*4)
	for i, w := range fs.table {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}

	return buf
}

func resolveFlagSet(table []uint32, stringBytes []byte, offset uint32) ([]string, error) {
	if int64(offset) >= int64(len(table)) {
		return nil, fmt.Errorf("%w: word offset %d out of bounds (table has %d words)",
			ErrInvalidFlagSetReference, offset, len(table))
	}

	count := int(table[offset])
	if int(offset)+1+count > len(table) {
		return nil, fmt.Errorf("%w: truncated entry at word offset %d", ErrInvalidFlagSetReference, offset)
	}

	flags := make([]string, 0, count)

	for _, strOff := range table[offset+1 : int(offset)+1+count] {
		s, err := ReadString(stringBytes, strOff)
		if err != nil {
			return nil, err
		}

		flags = append(flags, s)
	}

	return flags, nil
}

func allFlagSets(table []uint32, stringBytes []byte) ([]Entry, error) {
	var entries []Entry

	for off := 0; off < len(table); {
		flags, err := resolveFlagSet(table, stringBytes, uint32(off))
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Offset: uint32(off), Flags: flags})
		off += 1 + int(table[off])
	}

	return entries, nil
}

// setKey builds the interning key for a canonicalized offset list.
func setKey(offsets []uint32) string {
	buf := make([]byte, len(offsets)*4)
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(buf[i*4:], off)
	}

	return string(buf)
}
