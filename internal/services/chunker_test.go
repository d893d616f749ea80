package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextKeepsShortTextTogether(t *testing.T) {
	chunks := ChunkText("First paragraph.\n\n\n\nSecond paragraph.", 100, 10)
	if len(chunks) != 1 || chunks[0] != "First paragraph.\n\nSecond paragraph." {
		t.Fatalf("unexpected chunks: %q", chunks)
	}
}

func TestChunkTextSplitsWithOverlap(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	chunks := ChunkText(strings.Join(paras, "\n\n"), 60, 5)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[1], "aaaaa\n\nbbbb") {
		t.Fatalf("expected overlap from previous chunk, got %q", chunks[1])
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 60 {
			t.Fatalf("chunk exceeds limit: %d", utf8.RuneCountInString(c))
		}
	}
}

func TestChunkTextSplitsLongParagraphBySentence(t *testing.T) {
	text := "One sentence here. Another sentence there! A third one? Final words"
	chunks := ChunkText(text, 30, 0)

	if len(chunks) < 2 {
		t.Fatalf("expected sentence split, got %q", chunks)
	}
	joined := strings.Join(chunks, " ")
	for _, s := range []string{"One sentence here.", "Another sentence there!", "A third one?", "Final words"} {
		if !strings.Contains(joined, s) {
			t.Fatalf("lost sentence %q in %q", s, chunks)
		}
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText("  \n\n  ", 100, 10); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %q", chunks)
	}
}
