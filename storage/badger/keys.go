package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	indexEntryPrefix = "idxent:"
	indexMetricKey   = "idxmeta:metric"
)

// makeIndexEntryKey generates a key for the entry at the given build ordinal.
// Format: prefix + big-endian ordinal, so iteration follows build order.
func makeIndexEntryKey(ordinal uint64) []byte {
	buf := make([]byte, len(indexEntryPrefix)+8)
	offset := copy(buf, indexEntryPrefix)
	binary.BigEndian.PutUint64(buf[offset:], ordinal)
	return buf
}
