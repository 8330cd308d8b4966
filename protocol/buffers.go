package protocol

import "io"

// InputBuffer is received data waiting to be decoded
type InputBuffer interface {
	// Data returns the unconsumed bytes
	Data() []byte

	// Available returns len(Data())
	Available() int

	// Pop consumes n bytes from the front
	Pop(n int)
}

// OutputBuffer is where frames are assembled. Update and DataSince let the
// encoder patch the length byte and checksum what it wrote.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer reads from a fixed slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput collects frames in a fixed buffer, so encoding never
// allocates. Output past the end is dropped and reported by Overflowed.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Overflowed reports whether output was dropped since the last Reset
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// WriteTo sends the collected output to w and resets the buffer, even when
// the write fails: a frame is not worth retrying once it is stale.
func (s *ScratchOutput) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.buf[:s.pos])
	s.Reset()
	return int64(n), err
}

// ReceiveBuffer accumulates a byte stream for the decoder. Consumed bytes
// are dropped by moving the remainder to the front before the next read,
// so Data never copies.
type ReceiveBuffer struct {
	buf   []byte
	start int
	end   int
}

// NewReceiveBuffer creates a buffer holding up to capacity unconsumed bytes
func NewReceiveBuffer(capacity int) *ReceiveBuffer {
	return &ReceiveBuffer{buf: make([]byte, capacity)}
}

func (b *ReceiveBuffer) Data() []byte {
	return b.buf[b.start:b.end]
}

func (b *ReceiveBuffer) Available() int {
	return b.end - b.start
}

func (b *ReceiveBuffer) Pop(n int) {
	if n > b.Available() {
		n = b.Available()
	}
	b.start += n
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
}

// Free returns how many more bytes fit
func (b *ReceiveBuffer) Free() int {
	return len(b.buf) - b.Available()
}

// Write appends as much of data as fits and returns the count
func (b *ReceiveBuffer) Write(data []byte) int {
	b.compact()
	n := copy(b.buf[b.end:], data)
	b.end += n
	return n
}

// Fill performs one Read from r into the free space. A full buffer reads
// nothing and returns 0, nil.
func (b *ReceiveBuffer) Fill(r io.Reader) (int, error) {
	b.compact()
	if b.end == len(b.buf) {
		return 0, nil
	}
	n, err := r.Read(b.buf[b.end:])
	b.end += n
	return n, err
}

func (b *ReceiveBuffer) Reset() {
	b.start, b.end = 0, 0
}

func (b *ReceiveBuffer) compact() {
	if b.start == 0 {
		return
	}
	copy(b.buf, b.buf[b.start:b.end])
	b.end -= b.start
	b.start = 0
}
