package transform

import "strings"

// Expander inserts a single space between every byte of line. An empty
// line stays empty. Ported from original_source/plugins/expander.c's
// 2n-1 output-length computation.
func Expander(line string) (string, error) {
	if len(line) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.Grow(len(line)*2 - 1)
	for i := 0; i < len(line); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(line[i])
	}
	return b.String(), nil
}
