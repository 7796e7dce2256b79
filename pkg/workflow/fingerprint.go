package workflow

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a blake2b-256 digest over the map contents in
// iteration order. Two maps with the same entries in the same order share
// a fingerprint; reordering changes it because coordinates are positional.
func Fingerprint(m *CategorizedMap) string {
	h, _ := blake2b.New256(nil) // only errors for oversized keys

	writeUint := func(v uint64) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], v)
		h.Write(n[:])
	}
	writeField := func(s string) {
		writeUint(uint64(len(s)))
		h.Write([]byte(s))
	}

	for addr, d := range m.All() {
		writeField(string(addr))
		writeField(d.Command)
		writeField(d.Category)
		writeField(string(d.Parent))
		writeField(d.Direction)
		writeUint(uint64(d.Depth))
		// counted, so a list can never run into the next entry
		writeUint(uint64(len(d.Subprocesses)))
		for _, sub := range d.Subprocesses {
			writeField(string(sub))
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
