package transform

// Rotator moves every byte in line one position to the right, wrapping
// the last byte around to the front. Lines of length 0 or 1 pass through
// unchanged. Ported from original_source/plugins/rotator.c.
func Rotator(line string) (string, error) {
	if len(line) <= 1 {
		return line, nil
	}
	return line[len(line)-1:] + line[:len(line)-1], nil
}
