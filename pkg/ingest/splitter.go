package ingest

import "strings"

// defaultSeparators is ordered from the most structural break to the least.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into overlapping chunks, preferring paragraph and
// sentence boundaries over hard cuts.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split returns the chunks of text. Empty chunks are dropped.
func (s *Splitter) Split(text string) []string {
	raw := s.split(text, s.separators)
	chunks := make([]string, 0, len(raw))
	for _, chunk := range raw {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := ""
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}
	if separator == "" {
		return s.hardSplit(text)
	}

	var chunks []string
	var fitting []string
	for _, piece := range strings.Split(text, separator) {
		if len(piece) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		// Flush what fits so far, then break the oversized piece down
		// with the finer separators.
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, separator)...)
			fitting = nil
		}
		chunks = append(chunks, s.split(piece, remaining)...)
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, separator)...)
	}
	return chunks
}

// merge greedily packs pieces into chunks up to chunkSize, carrying the
// last pieces over into the next chunk to form the overlap.
func (s *Splitter) merge(pieces []string, separator string) []string {
	var chunks []string
	var current []string
	total := 0

	joinedLen := func(extra int) int {
		length := total + extra
		if len(current) > 0 {
			length += len(separator) * len(current)
		}
		return length
	}

	for _, piece := range pieces {
		if len(current) > 0 && joinedLen(len(piece)) > s.chunkSize {
			chunks = append(chunks, strings.Join(current, separator))
			// Carry pieces over until the next chunk has room again
			// and the carried text is within the overlap budget.
			for len(current) > 0 && (total > s.overlap || joinedLen(len(piece)) > s.chunkSize) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += len(piece)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, separator))
	}
	return chunks
}

// hardSplit cuts text at fixed offsets when no separator is usable.
func (s *Splitter) hardSplit(text string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
