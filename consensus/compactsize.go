package consensus

// AppendCompactSize encodes n as a CompactSize varint and appends it to dst.
func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return appendU16le(dst, uint16(n))
	case n <= 0xffff_ffff:
		dst = append(dst, 0xfe)
		return appendU32le(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return appendU64le(dst, n)
	}
}

// EncodeCompactSize encodes n as a CompactSize varint.
func EncodeCompactSize(n uint64) []byte {
	return AppendCompactSize(nil, n)
}

// DecodeCompactSize decodes one CompactSize value from the front of b.
// It returns the value and the number of bytes consumed. Non-minimal
// encodings are accepted; the encoder always emits the minimal form.
func DecodeCompactSize(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, codecErr(ERR_TRUNCATED_INPUT, "compactsize: empty")
	}
	tag := b[0]
	switch {
	case tag < 0xfd:
		return uint64(tag), 1, nil
	case tag == 0xfd:
		if len(b) < 3 {
			return 0, 0, codecErr(ERR_TRUNCATED_INPUT, "compactsize: truncated u16")
		}
		n := uint64(b[1]) | uint64(b[2])<<8
		return n, 3, nil
	case tag == 0xfe:
		if len(b) < 5 {
			return 0, 0, codecErr(ERR_TRUNCATED_INPUT, "compactsize: truncated u32")
		}
		n := uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16 | uint64(b[4])<<24
		return n, 5, nil
	default: // 0xff
		if len(b) < 9 {
			return 0, 0, codecErr(ERR_TRUNCATED_INPUT, "compactsize: truncated u64")
		}
		n := uint64(b[1]) |
			uint64(b[2])<<8 |
			uint64(b[3])<<16 |
			uint64(b[4])<<24 |
			uint64(b[5])<<32 |
			uint64(b[6])<<40 |
			uint64(b[7])<<48 |
			uint64(b[8])<<56
		return n, 9, nil
	}
}
