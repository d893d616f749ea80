package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 150
)

// ChunkText splits catalogue text into chunks of at most maxChars runes,
// preferring paragraph and then sentence boundaries. Each chunk after the
// first starts with the last overlap runes of its predecessor.
func ChunkText(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 4
	}

	c := &chunkBuilder{max: maxChars, overlap: overlap}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChars {
			c.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			c.add(sentence, " ")
		}
	}

	return c.finish()
}

type chunkBuilder struct {
	max     int
	overlap int
	chunks  []string
	current strings.Builder
}

func (c *chunkBuilder) add(piece, sep string) {
	if c.current.Len() > 0 && utf8.RuneCountInString(c.current.String())+utf8.RuneCountInString(piece)+len(sep) > c.max {
		prev := c.current.String()
		c.chunks = append(c.chunks, prev)
		c.current.Reset()
		if tail := lastRunes(prev, c.overlap); tail != "" {
			c.current.WriteString(tail)
		}
	}

	if c.current.Len() > 0 {
		c.current.WriteString(sep)
	}
	c.current.WriteString(piece)
}

func (c *chunkBuilder) finish() []string {
	if c.current.Len() > 0 {
		c.chunks = append(c.chunks, c.current.String())
	}
	return c.chunks
}

func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
