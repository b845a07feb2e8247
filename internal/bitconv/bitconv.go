package bitconv

// BytesToBools expands b into bits, most significant bit first.
func BytesToBools(b []byte) []bool {
	bits := make([]bool, 0, len(b)*8)
	for _, bb := range b {
		for i := 7; i >= 0; i-- {
			bits = append(bits, ((bb>>uint(i))&1) == 1)
		}
	}
	return bits
}

// BoolsToBytes packs bits into bytes, most significant bit first.
// A trailing group of fewer than 8 bits is dropped.
func BoolsToBytes(bits []bool) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var v byte
		for j, bit := range bits[i*8 : (i+1)*8] {
			if bit {
				v |= 1 << uint(7-j)
			}
		}
		out[i] = v
	}
	return out
}

