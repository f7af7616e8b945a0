package consensus

import "encoding/binary"

// cursor is a private read position over an input buffer. Every decode call
// owns its own cursor, so concurrent decodes never share state.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b, pos: 0}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, codecErr(ERR_TRUNCATED_INPUT, "read past end of input")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8() (byte, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16LE() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readU48LE reads a 6-byte little-endian unsigned integer.
func (c *cursor) readU48LE() (uint64, error) {
	return c.readUintLE(6)
}

// readU56LE reads a 7-byte little-endian unsigned integer.
func (c *cursor) readU56LE() (uint64, error) {
	return c.readUintLE(7)
}

func (c *cursor) readU64LE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) readUintLE(width int) (uint64, error) {
	b, err := c.readExact(width)
	if err != nil {
		return 0, err
	}
	var n uint64
	for i := 0; i < width; i++ {
		n |= uint64(b[i]) << (8 * i)
	}
	return n, nil
}

func (c *cursor) readHash() (Hash, error) {
	b, err := c.readExact(HashBytes)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func (c *cursor) readCompactSize() (uint64, error) {
	n, used, err := DecodeCompactSize(c.b[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += used
	return n, nil
}

// readCount reads a CompactSize element count. Every element occupies at
// least one byte, so a count larger than the remaining input is structurally
// invalid and is rejected before any allocation.
func (c *cursor) readCount(name string) (int, error) {
	v, err := c.readCompactSize()
	if err != nil {
		return 0, err
	}
	if v > uint64(c.remaining()) {
		return 0, codecErr(ERR_STRUCTURAL, name+" exceeds input")
	}
	return int(v), nil
}

// readVarBytes reads a CompactSize-prefixed byte string and returns an
// independently owned copy.
func (c *cursor) readVarBytes() ([]byte, error) {
	nU64, err := c.readCompactSize()
	if err != nil {
		return nil, err
	}
	n, err := toIntLen(nU64, "byte string length")
	if err != nil {
		return nil, err
	}
	b, err := c.readExact(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func maxIntAsUint64() uint64 {
	return uint64(^uint(0) >> 1)
}

func toIntLen(v uint64, name string) (int, error) {
	if v > maxIntAsUint64() {
		return 0, codecErr(ERR_STRUCTURAL, name+" overflows int")
	}
	return int(v), nil
}

func appendU16le(dst []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(dst, tmp[:]...)
}

func appendU32le(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

// appendU48le appends the low 6 bytes of v, little-endian.
func appendU48le(dst []byte, v uint64) []byte {
	return appendUintLE(dst, v, 6)
}

// appendU56le appends the low 7 bytes of v, little-endian.
func appendU56le(dst []byte, v uint64) []byte {
	return appendUintLE(dst, v, 7)
}

func appendU64le(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

func appendUintLE(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}

// appendVarBytes appends a CompactSize length prefix followed by b.
func appendVarBytes(dst []byte, b []byte) []byte {
	dst = AppendCompactSize(dst, uint64(len(b)))
	return append(dst, b...)
}
