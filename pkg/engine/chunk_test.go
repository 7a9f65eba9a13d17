package engine

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIndexLines(t *testing.T) {
	got := IndexLines("Privacy Policy\r\nWe collect data.\n\nContact us.")
	want := "[LINE 1] Privacy Policy\n[LINE 2] We collect data.\n[LINE 3] \n[LINE 4] Contact us."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if IndexLines("") != "" {
		t.Errorf("Expected empty document to index to empty string")
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	chunks := Chunk("", 100, 10)
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("Expected a single empty chunk, got %q", chunks)
	}
}

func TestChunkWindows(t *testing.T) {
	text := "abc\ndef"
	// indexed: "[LINE 1] abc\n[LINE 2] def" (25 runes)
	chunks := Chunk(text, 10, 4)
	indexed := IndexLines(text)
	step := 6
	for i, c := range chunks {
		start := i * step
		end := start + 10
		if end > len(indexed) {
			end = len(indexed)
		}
		if c != indexed[start:end] {
			t.Errorf("Chunk %d: expected %q, got %q", i, indexed[start:end], c)
		}
	}
	if want := (len(indexed) + step - 1) / step; len(chunks) != want {
		t.Errorf("Expected %d chunks, got %d", want, len(chunks))
	}
}

func TestChunkClampsBadSizes(t *testing.T) {
	if got := Chunk("hello world", 0, 5); len(got) == 0 {
		t.Fatalf("Expected chunks for non-positive size")
	}
	got := Chunk("hello", 4, 9)
	for _, c := range got {
		if utf8.RuneCountInString(c) > 4 {
			t.Errorf("Chunk %q exceeds size 4", c)
		}
	}
}

func TestChunkCoversEveryMarker(t *testing.T) {
	var lines []string
	for i := 1; i <= 57; i++ {
		lines = append(lines, fmt.Sprintf("Clause %d: données personnelles · %s", i, strings.Repeat("x", i%13)))
	}
	text := strings.Join(lines, "\n")

	longest := 0
	for _, l := range strings.Split(IndexLines(text), "\n") {
		if n := utf8.RuneCountInString(l); n > longest {
			longest = n
		}
	}

	for _, size := range []int{longest + 1, 80, 200, 1000, 100000} {
		if size <= longest {
			continue
		}
		overlap := longest
		chunks := Chunk(text, size, overlap)
		if len(chunks) == 0 {
			t.Fatalf("size %d: expected at least one chunk", size)
		}
		joined := strings.Join(chunks, "\x00")
		for i := 1; i <= len(lines); i++ {
			if !strings.Contains(joined, LineMarker(i)+" ") {
				t.Errorf("size %d overlap %d: marker %s missing from every chunk", size, overlap, LineMarker(i))
			}
		}
		for _, c := range chunks {
			if !utf8.ValidString(c) {
				t.Errorf("size %d: chunk splits a UTF-8 sequence", size)
			}
		}
	}
}

func TestChunkCoversEveryPosition(t *testing.T) {
	text := "one\ntwo\nthree\nfour\nfive"
	indexed := []rune(IndexLines(text))
	for _, tc := range []struct{ size, overlap int }{{1, 0}, {3, 2}, {7, 0}, {7, 6}, {50, 10}} {
		chunks := Chunk(text, tc.size, tc.overlap)
		covered := make([]bool, len(indexed))
		step := tc.size - tc.overlap
		for i, c := range chunks {
			for j := range []rune(c) {
				covered[i*step+j] = true
			}
		}
		for p, ok := range covered {
			if !ok {
				t.Errorf("size %d overlap %d: position %d not covered", tc.size, tc.overlap, p)
				break
			}
		}
	}
}
