package nlp

import "unicode"

// Tokenize splits text into word and punctuation tokens with character offsets.
//
// Whitespace follows spaCy: one space after a token belongs to that token and
// produces nothing, any other whitespace run ("\n", "\n\n", the second of two
// spaces) is a token with IsSpace set. Every other non-word character is a
// token of its own. '.', '-' and '/' are kept inside a word when both
// neighbours are letters or digits, so "1.500" and "45-2007" are single tokens.
func Tokenize(text string) []Token {
	runes := []rune(text)
	tokens := make([]Token, 0, len(runes)/5+1)

	for i := 0; i < len(runes); {
		r := runes[i]
		if unicode.IsSpace(r) {
			start := i
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			if r == ' ' && len(tokens) > 0 && tokens[len(tokens)-1].End == start {
				start++
			}
			if start < i {
				tokens = append(tokens, Token{
					Index:   len(tokens),
					Text:    string(runes[start:i]),
					Start:   start,
					End:     i,
					IsSpace: true,
				})
			}
			continue
		}

		start := i
		if isWordRune(r) {
			i++
			for i < len(runes) {
				if isWordRune(runes[i]) {
					i++
					continue
				}
				if isInnerPunct(runes[i]) && i+1 < len(runes) && isAlnum(runes[i-1]) && isAlnum(runes[i+1]) {
					i++
					continue
				}
				break
			}
		} else {
			i++
		}

		word := string(runes[start:i])
		tokens = append(tokens, Token{
			Index:   len(tokens),
			Text:    word,
			Start:   start,
			End:     i,
			IsDigit: isDigits(word),
		})
	}

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isInnerPunct(r rune) bool {
	return r == '.' || r == '-' || r == '/'
}

// isDigits reports whether s is non-empty and made only of digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// wordTokens returns the tokens that are not whitespace
func wordTokens(tokens []Token) []Token {
	words := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if !t.IsSpace {
			words = append(words, t)
		}
	}
	return words
}

// runeOffsets maps every byte index of text (and len(text)) to a character offset.
// Continuation bytes map to the character they belong to.
func runeOffsets(text string) []int {
	offsets := make([]int, len(text)+1)
	for i := range offsets {
		offsets[i] = -1
	}
	n := 0
	for i := range text {
		offsets[i] = n
		n++
	}
	offsets[len(text)] = n
	for i := 1; i < len(text); i++ {
		if offsets[i] < 0 {
			offsets[i] = offsets[i-1]
		}
	}
	return offsets
}
