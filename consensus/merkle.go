package consensus

// MerkleRoot computes the order-dependent merkle root of hashes and the
// number of tree levels. Nodes are combined pairwise with double-SHA256; an
// unmatched last element at any level is paired with the all-zero hash. The
// tree always performs at least one combining pass, so a single element
// yields Hash256(element ‖ zero). Implementations that instead return a lone
// element unchanged will disagree on single-element roots. An empty input
// yields the zero hash with a level count of 0, which callers must treat as
// "no root".
func MerkleRoot(hashes []Hash) (Hash, uint8) {
	if len(hashes) == 0 {
		return Hash{}, 0
	}
	level := append([]Hash(nil), hashes...)
	layers := uint8(1)
	var pre [2 * HashBytes]byte
	for {
		layers++
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			copy(pre[:HashBytes], level[i][:])
			if i+1 < len(level) {
				copy(pre[HashBytes:], level[i+1][:])
			} else {
				for j := HashBytes; j < len(pre); j++ {
					pre[j] = 0
				}
			}
			next = append(next, Hash256(pre[:]))
		}
		level = next
		if len(level) == 1 {
			break
		}
	}
	return level[0], layers
}
