package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode"

	"github.com/ppiankov/legalner/internal/cache"
	"golang.org/x/time/rate"
)

// annotateFunc annotates a single chunk; offsets are relative to the chunk
type annotateFunc func(ctx context.Context, chunk string) (*Doc, error)

// chunker splits text into paragraph chunks for remote backends, rate limits
// the calls and reuses annotations of repeated chunks.
type chunker struct {
	name    string
	size    int
	cache   cache.Cache
	ttl     time.Duration
	limiter *rate.Limiter
}

type cachedChunk struct {
	Tokens   []Token `json:"tokens"`
	Entities []Span  `json:"entities"`
}

func newChunker(name string, size int, c cache.Cache, ttl time.Duration, requestsPerSecond float64, burst int) *chunker {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &chunker{
		name:    name,
		size:    size,
		cache:   c,
		ttl:     ttl,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// annotate runs fn over every chunk of text and merges the results into one Doc
func (c *chunker) annotate(ctx context.Context, text string, fn annotateFunc) (*Doc, error) {
	doc := NewDoc(text)
	for _, r := range splitChunks(doc.runes, c.size) {
		chunk := string(doc.runes[r[0]:r[1]])

		part, err := c.annotateChunk(ctx, chunk, fn)
		if err != nil {
			return nil, fmt.Errorf("annotate chunk at %d: %w", r[0], err)
		}

		base := len(doc.Tokens)
		for _, tok := range part.Tokens {
			tok.Index += base
			tok.Start += r[0]
			tok.End += r[0]
			doc.Tokens = append(doc.Tokens, tok)
		}
		for _, ent := range part.Entities {
			ent.Start += r[0]
			ent.End += r[0]
			ent.Text = doc.Slice(ent.Start, ent.End)
			doc.Entities = append(doc.Entities, ent)
		}
	}
	return doc, nil
}

func (c *chunker) annotateChunk(ctx context.Context, chunk string, fn annotateFunc) (*Doc, error) {
	key := cache.Key(c.name, chunk)
	if c.cache != nil {
		if raw, found := c.cache.Get(key); found {
			var cached cachedChunk
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &Doc{Text: chunk, Tokens: cached.Tokens, Entities: cached.Entities}, nil
			}
			_ = c.cache.Delete(key)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	part, err := fn(ctx, chunk)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		raw, err := json.Marshal(cachedChunk{Tokens: part.Tokens, Entities: part.Entities})
		if err == nil {
			_ = c.cache.Set(key, raw, c.ttl)
		}
	}
	return part, nil
}

// splitChunks returns [start, end) character ranges covering runes.
// Paragraphs (blank-line separated) are packed up to size characters; a
// paragraph longer than size is cut at the last whitespace before the limit.
// size <= 0 yields a single chunk.
func splitChunks(runes []rune, size int) [][2]int {
	n := len(runes)
	if n == 0 {
		return nil
	}
	if size <= 0 || n <= size {
		return [][2]int{{0, n}}
	}

	var chunks [][2]int
	start := 0
	for start < n {
		if n-start <= size {
			chunks = append(chunks, [2]int{start, n})
			break
		}
		limit := start + size

		// prefer the last paragraph break inside the window
		cut := -1
		for i := limit - 1; i > start; i-- {
			if runes[i] == '\n' && runes[i-1] == '\n' {
				cut = i + 1
				break
			}
		}
		if cut < 0 {
			for i := limit - 1; i > start; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i + 1
					break
				}
			}
		}
		if cut < 0 {
			cut = limit
		}
		chunks = append(chunks, [2]int{start, cut})
		start = cut
	}
	return chunks
}
