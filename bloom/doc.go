// Package bloom implements the portable commonpass Bloom filter: its sizing
// rules, its insertion and query algorithm, and its binary format.
//
// Every implementation of the format must agree bit for bit, so nothing
// here is tunable: probe positions come from two full SHA-256 digests and
// bits are numbered most-significant first.
//
// # Probing
//
// For a value v encoded as bytes b:
//
//	h1 = SHA-256(b || 0x00)   as a 256-bit big-endian integer
//	h2 = SHA-256(b || 0x01)   as a 256-bit big-endian integer
//	idx_i = (h1 + i*h2) mod m,  i = 0..k-1
//
// Bit idx lives in byte idx/8 at position 7 - idx%8, so bit 0 of the filter
// is the high bit of byte 0.
//
// # Format
//
// A serialized filter (.bf) is one line of compact JSON, a single '\n', and
// the raw bit array:
//
//	{"format":"commonpass-bloom-v1","bit_size":8192,"hash_count":6,...}\n
//	<ceil(bit_size/8) bytes>
//
// See Header for the key set. Decode rejects anything whose trailing byte
// count does not match bit_size.
//
// # Usage
//
// Building:
//
//	p, err := bloom.OptimalParams(int64(len(words)), 0.01)
//	if err != nil { return err }
//	f, err := bloom.NewWithParams(p)
//	if err != nil { return err }
//	for _, w := range words {
//	    f.Add(w)
//	}
//	blob, err := f.Encode(bloom.Meta{ExpectedN: int64(len(words)), FPR: 0.01})
//
// Querying:
//
//	m, err := bloom.Open("common_tiny.bf")
//	if err != nil { return err }
//	defer m.Close()
//	ok, err := m.Contains("hunter2")
//
// Bloom filters have no false negatives but do have false positives. They
// are not secrets and prove nothing about absence from the source lists
// beyond the filter's own contents.
package bloom
