package yenc

import (
	"hash"
	"hash/crc32"
)

// crcTable is the reflected IEEE 802.3 table (polynomial 0xEDB88320).
// Built once at init and never modified.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32/IEEE checksum of b, as carried by the
// crc32 and pcrc32 fields of a =yend line.
func Checksum(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}

// NewHash returns a streaming hash that yields the same value as Checksum.
func NewHash() hash.Hash32 {
	return crc32.New(crcTable)
}
