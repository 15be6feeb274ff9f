// Package notify groups formatted lines into messages that fit the
// transport's size limit.
package notify

import (
	"strings"
	"unicode/utf8"
)

// Separator joins lines inside a chunk.
const Separator = "\n"

// Batch greedily packs lines into chunks of at most limit characters
// (runes). Lines keep their order and are never split across chunks, except
// a line that alone exceeds limit: it is cut on rune boundaries into
// consecutive chunks of its own, so nothing is lost. No lines yields no
// chunks.
func Batch(lines []string, limit int) []string {
	if len(lines) == 0 || limit <= 0 {
		return nil
	}

	var (
		chunks []string
		cur    strings.Builder
		size   int
		count  int
	)
	flush := func() {
		if count > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			size, count = 0, 0
		}
	}

	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n > limit {
			flush()
			chunks = append(chunks, split(line, limit)...)
			continue
		}
		if count > 0 && size+len(Separator)+n > limit {
			flush()
		}
		if count > 0 {
			cur.WriteString(Separator)
			size += len(Separator)
		}
		cur.WriteString(line)
		size += n
		count++
	}
	flush()
	return chunks
}

func split(s string, limit int) []string {
	var out []string
	start, i := 0, 0
	for pos := range s {
		if i == limit {
			out = append(out, s[start:pos])
			start, i = pos, 0
		}
		i++
	}
	return append(out, s[start:])
}
