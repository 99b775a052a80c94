package transform

// Flipper reverses the order of bytes in line. This is a byte reversal,
// not a rune reversal: multi-byte UTF-8 sequences are not reassembled in
// order, matching original_source/plugins/flipper.c's byte-indexed loop
// over a char* with no multibyte awareness.
func Flipper(line string) (string, error) {
	b := []byte(line)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}
