package codec

// cursor is a forward-only reader over a decode buffer. It never
// panics on underrun; every read method returns an error instead so
// decode can surface ErrMalformedInput.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) peek() (byte, error) {
	if c.remaining() < 1 {
		return 0, malformedInputError("unexpected end of input")
	}
	return c.data[c.pos], nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.peek()
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, malformedInputError("unexpected end of input")
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// lookahead returns up to n bytes following the already-consumed
// header byte, without advancing past them, for length-field parsers
// that want a short lookahead window.
func (c *cursor) lookahead(n int) []byte {
	end := c.pos + n
	if end > len(c.data) {
		end = len(c.data)
	}
	return c.data[c.pos:end]
}
