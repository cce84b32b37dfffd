package ingest

import (
	"strings"
	"testing"
)

func TestSplitter_Split(t *testing.T) {
	t.Run("should keep short text in one chunk", func(t *testing.T) {
		splitter := NewSplitter(800, 100)

		chunks := splitter.Split("a short passage")
		if len(chunks) != 1 || chunks[0] != "a short passage" {
			t.Fatalf("\nwanted:\n[a short passage]\ngot:\n%v", chunks)
		}
	})

	t.Run("should drop empty input", func(t *testing.T) {
		splitter := NewSplitter(800, 100)

		if chunks := splitter.Split("   \n\n  "); len(chunks) != 0 {
			t.Fatalf("\nwanted:\nno chunks\ngot:\n%v", chunks)
		}
	})

	t.Run("should prefer paragraph breaks", func(t *testing.T) {
		splitter := NewSplitter(10, 2)

		chunks := splitter.Split("para1\n\npara2")
		if len(chunks) != 2 || chunks[0] != "para1" || chunks[1] != "para2" {
			t.Fatalf("\nwanted:\n[para1 para2]\ngot:\n%v", chunks)
		}
	})

	t.Run("should overlap consecutive chunks", func(t *testing.T) {
		splitter := NewSplitter(10, 4)

		chunks := splitter.Split("aa bb cc dd ee ff")
		want := []string{"aa bb cc", "bb cc dd", "cc dd ee", "dd ee ff"}
		if len(chunks) != len(want) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, chunks)
		}
		for i := range want {
			if chunks[i] != want[i] {
				t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, chunks)
			}
		}
	})

	t.Run("should respect the chunk size for prose", func(t *testing.T) {
		splitter := NewSplitter(100, 20)

		var sb strings.Builder
		for i := 0; i < 40; i++ {
			sb.WriteString("the quick brown fox jumps over the lazy dog. ")
		}

		chunks := splitter.Split(sb.String())
		if len(chunks) < 2 {
			t.Fatalf("\nwanted:\nmultiple chunks\ngot:\n%d", len(chunks))
		}
		for i, chunk := range chunks {
			if len(chunk) > 100 {
				t.Fatalf("chunk %d exceeds the size limit: %d chars", i, len(chunk))
			}
		}
	})

	t.Run("should hard split text with no separators", func(t *testing.T) {
		splitter := NewSplitter(10, 2)

		chunks := splitter.Split(strings.Repeat("x", 25))
		if len(chunks) < 3 {
			t.Fatalf("\nwanted:\nat least 3 chunks\ngot:\n%v", chunks)
		}
		for i, chunk := range chunks {
			if len(chunk) > 10 {
				t.Fatalf("chunk %d exceeds the size limit: %d chars", i, len(chunk))
			}
		}
	})
}
