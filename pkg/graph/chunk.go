package graph

import (
	"strings"
	"unicode"
)

// ChunkOptions controls how text is split into windows. MaxLength and
// Overlap are measured with CountWords.
type ChunkOptions struct {
	MaxLength         int
	Overlap           int
	RespectSentences  bool
	RespectParagraphs bool
}

// DefaultChunkOptions respects both sentence and paragraph boundaries.
func DefaultChunkOptions(maxLength, overlap int) ChunkOptions {
	return ChunkOptions{
		MaxLength:         maxLength,
		Overlap:           overlap,
		RespectSentences:  true,
		RespectParagraphs: true,
	}
}

// CountWords counts whitespace separated tokens plus one unit per CJK
// ideograph, so mixed Chinese and Latin text is measured consistently.
func CountWords(s string) int {
	n := len(strings.Fields(s))
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			n++
		}
	}
	return n
}

// Chunk splits text into windows of at most opts.MaxLength words.
//
// Sentences are accumulated greedily. When the next sentence does not fit,
// the window is emitted and the next one is seeded with the last one or two
// sentences of the emitted window, as long as they fit within opts.Overlap.
// A sentence longer than MaxLength is emitted on its own, unchanged, and the
// accumulator starts empty afterwards.
func Chunk(text string, opts ChunkOptions) []string {
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = 500
	}

	var paragraphs []string
	if opts.RespectParagraphs {
		for _, p := range strings.Split(text, "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				paragraphs = append(paragraphs, p)
			}
		}
	} else if p := strings.TrimSpace(text); p != "" {
		paragraphs = []string{p}
	}

	chunks := make([]string, 0)
	var current []string
	currentLength := 0

	emit := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
	}

	for _, paragraph := range paragraphs {
		sentences := []string{paragraph}
		if opts.RespectSentences {
			sentences = splitSentences(paragraph)
		}

		for _, sentence := range sentences {
			length := CountWords(sentence)

			if length > maxLength {
				emit()
				chunks = append(chunks, sentence)
				current = nil
				currentLength = 0
				continue
			}

			if currentLength+length <= maxLength {
				current = append(current, sentence)
				currentLength += length
				continue
			}

			emit()
			seed := overlapSeed(current, opts.Overlap, maxLength-length)
			current = append(seed, sentence)
			currentLength = length
			for _, s := range seed {
				currentLength += CountWords(s)
			}
		}
	}
	emit()

	return chunks
}

// overlapSeed returns the last two sentences of window, or the last one,
// whose combined length is within both overlap and room. It returns nil
// when overlap is disabled or nothing fits.
func overlapSeed(window []string, overlap, room int) []string {
	if overlap <= 0 || len(window) == 0 {
		return nil
	}

	limit := min(overlap, room)
	for take := min(2, len(window)); take > 0; take-- {
		tail := window[len(window)-take:]
		words := 0
		for _, s := range tail {
			words += CountWords(s)
		}
		if words <= limit {
			seed := make([]string, take)
			copy(seed, tail)
			return seed
		}
	}
	return nil
}

func isTerminal(r rune) bool {
	switch r {
	case '。', '!', '?', '！', '？':
		return true
	}
	return false
}

func isOpeningQuote(r rune) bool {
	switch r {
	case '“', '‘', '「', '『':
		return true
	}
	return false
}

func closerFor(r rune) rune {
	switch r {
	case '“':
		return '”'
	case '‘':
		return '’'
	case '「':
		return '」'
	}
	return '』'
}

func isClosingQuote(r rune) bool {
	switch r {
	case '”', '’', '」', '』', '"', '\'':
		return true
	}
	return false
}

// isClausePunct reports punctuation that continues a sentence after a
// closing quote, as in: 他说“好！”，然后离开。
func isClausePunct(r rune) bool {
	switch r {
	case '，', '。', '！', '？', '!', '?', ',', '、', '；', ';':
		return true
	}
	return false
}

// matchQuotes pairs opening and closing quotes and returns, for every
// opening quote that is closed, the index of its closer. Pairs never span a
// blank line. A '"' right after a digit is an inch mark, and unmatched
// quotes are left out so they do not suppress sentence boundaries.
func matchQuotes(runes []rune) map[int]int {
	type open struct {
		at     int
		closer rune
	}

	pairs := make(map[int]int)
	var stack []open
	ascii := -1

	for i, r := range runes {
		switch {
		case r == '\n' && blankLineFollows(runes, i+1):
			stack = stack[:0]
			ascii = -1

		case isOpeningQuote(r):
			stack = append(stack, open{at: i, closer: closerFor(r)})

		case r == '"':
			if i > 0 && unicode.IsDigit(runes[i-1]) {
				continue
			}
			if ascii >= 0 {
				pairs[ascii] = i
				ascii = -1
				continue
			}
			ascii = i

		case isClosingQuote(r):
			for k := len(stack) - 1; k >= 0; k-- {
				if stack[k].closer == r {
					pairs[stack[k].at] = i
					stack = stack[:k]
					break
				}
			}
		}
	}

	// An ASCII pair may not cross a typographic pair.
	for o, c := range pairs {
		if runes[o] != '"' {
			continue
		}
		for to, tc := range pairs {
			if runes[to] == '"' {
				continue
			}
			if (o < to && to < c && c < tc) || (to < o && o < tc && tc < c) {
				delete(pairs, o)
				break
			}
		}
	}
	return pairs
}

func blankLineFollows(runes []rune, i int) bool {
	for ; i < len(runes); i++ {
		switch runes[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		}
		return false
	}
	return false
}

// splitSentences splits one paragraph into sentences. It breaks after CJK
// and Latin terminal punctuation and after ellipses, keeps closing quotes
// with their sentence and never breaks inside a quotation that is closed
// within the paragraph. Line breaks are treated as spaces, so hard-wrapped
// lines join back into their sentence.
func splitSentences(paragraph string) []string {
	runes := []rune(paragraph)
	n := len(runes)
	pairs := matchQuotes(runes)

	var sentences []string
	var current strings.Builder
	var closers []int

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	inQuote := func() bool { return len(closers) > 0 }

	// closeSentence absorbs trailing closing quotes after a terminal at
	// position j and flushes unless clause punctuation follows.
	closeSentence := func(j int) int {
		for j < n && isClosingQuote(runes[j]) {
			current.WriteRune(runes[j])
			j++
		}
		if j < n && isClausePunct(runes[j]) {
			return j - 1
		}
		flush()
		return j - 1
	}

	for i := 0; i < n; i++ {
		r := runes[i]

		if r == '\n' || r == '\r' {
			if current.Len() > 0 && !strings.HasSuffix(current.String(), " ") {
				current.WriteRune(' ')
			}
			continue
		}
		current.WriteRune(r)

		if inQuote() && i == closers[len(closers)-1] {
			closers = closers[:len(closers)-1]
			if !inQuote() && i > 0 && endsSentence(runes[i-1]) {
				i = closeSentence(i + 1)
			}
			continue
		}
		if c, ok := pairs[i]; ok {
			closers = append(closers, c)
			continue
		}

		switch {
		case inQuote():

		case isTerminal(r):
			j := i + 1
			for j < n && isTerminal(runes[j]) {
				current.WriteRune(runes[j])
				j++
			}
			i = closeSentence(j)

		case r == '…':
			j := i + 1
			for j < n && runes[j] == '…' {
				current.WriteRune(runes[j])
				j++
			}
			i = closeSentence(j)

		case r == '.':
			j := i + 1
			for j < n && runes[j] == '.' {
				current.WriteRune(runes[j])
				j++
			}
			if j-i >= 3 {
				i = closeSentence(j)
				continue
			}
			atBoundary := j >= n || unicode.IsSpace(runes[j]) || isClosingQuote(runes[j])
			if atBoundary && !isListMarker(current.String()) {
				i = closeSentence(j)
				continue
			}
			i = j - 1
		}
	}
	flush()

	return sentences
}

func endsSentence(r rune) bool {
	return isTerminal(r) || r == '.' || r == '…'
}

// isListMarker reports whether s is a bare enumeration like "1." or "12.".
func isListMarker(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
