package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	return i64toa(int64(n))
}

// i64toa converts a 64-bit integer to a string. Encoder counts are int64.
func i64toa(n int64) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	// Work on the magnitude as uint64 so MinInt64 does not overflow
	mag := uint64(n)
	if negative {
		mag = uint64(-n)
	}

	var buf [20]byte
	pos := len(buf)
	for mag > 0 {
		pos--
		buf[pos] = byte('0' + mag%10)
		mag /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	return u64toa(uint64(n))
}

func u64toa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// FormatInt formats n in decimal without fmt. Exported for the display and
// firmware packages, which avoid fmt on the microcontroller.
func FormatInt(n int64) string {
	return i64toa(n)
}

// FormatMillis formats a duration in µs as "s.mmm"
func FormatMillis(t Time) string {
	ms := t.Millis()
	frac := ms % 1000
	s := u64toa(ms/1000) + "."
	switch {
	case frac < 10:
		s += "00"
	case frac < 100:
		s += "0"
	}
	return s + u64toa(frac)
}
