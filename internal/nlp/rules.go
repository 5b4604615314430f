package nlp

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/legalner/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/gazetteer.yaml
var defaultGazetteerYAML []byte

const (
	LabelPerson = "PER"
	LabelOrg    = "ORG"
	LabelLoc    = "LOC"
	LabelDate   = "DATE"
	LabelMoney  = "MONEY"
)

// labelPriority breaks ties between overlapping candidates of equal length
var labelPriority = map[string]int{
	LabelDate:   5,
	LabelMoney:  4,
	LabelOrg:    3,
	LabelLoc:    2,
	LabelPerson: 1,
}

var (
	months = `enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre`

	dateLongRegexp    = regexp.MustCompile(`(?i)\b\d{1,2}\s+de\s+(?:` + months + `)(?:\s+del?\s+\d{4})?\b`)
	dateMonthRegexp   = regexp.MustCompile(`(?i)\b(?:` + months + `)\s+del?\s+\d{4}\b`)
	dateNumericRegexp = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)

	moneyPrefixRegexp = regexp.MustCompile(`(?:B/\.|US\$|USD|\$)\s?\d+(?:[.,]\d+)*`)
	moneySuffixRegexp = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)*\s+(?:balboas?|dólares|euros|pesos)`)
)

// Gazetteer holds the word lists used by the rule model
type Gazetteer struct {
	Honorifics []string `yaml:"honorifics"`
	FirstNames []string `yaml:"first_names"`
	Particles  []string `yaml:"particles"`
	OrgHeads   []string `yaml:"org_heads"`
	Stopwords  []string `yaml:"stopwords"`
	Locations  []string `yaml:"locations"`
}

// LoadGazetteer reads a YAML gazetteer from path, or the built-in one when path is empty
func LoadGazetteer(path string) (*Gazetteer, error) {
	data := defaultGazetteerYAML
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read gazetteer: %w", err)
		}
		data = raw
	}

	var g Gazetteer
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}
	return &g, nil
}

// RuleModel is a dictionary and pattern based Spanish recognizer
type RuleModel struct {
	catalog *Catalog

	honorifics map[string]bool
	firstNames map[string]bool
	particles  map[string]bool
	orgHeads   map[string]bool
	stopwords  map[string]bool

	// locations indexed by their first lowercase word
	locations map[string][][]string
}

// NewRuleModel creates the rule model, honoring catalog and gazetteer overrides
func NewRuleModel(cfg model.ModelConfig) (*RuleModel, error) {
	catalog, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	gaz, err := LoadGazetteer(cfg.Gazetteer)
	if err != nil {
		return nil, err
	}
	return NewRuleModelWith(gaz, catalog), nil
}

// NewRuleModelWith creates the rule model from already loaded data
func NewRuleModelWith(gaz *Gazetteer, catalog *Catalog) *RuleModel {
	m := &RuleModel{
		catalog:    catalog,
		honorifics: wordSet(gaz.Honorifics),
		firstNames: wordSet(gaz.FirstNames),
		particles:  wordSet(gaz.Particles),
		orgHeads:   wordSet(gaz.OrgHeads),
		stopwords:  wordSet(gaz.Stopwords),
		locations:  make(map[string][][]string),
	}
	for _, loc := range gaz.Locations {
		words := strings.Fields(strings.ToLower(loc))
		if len(words) == 0 {
			continue
		}
		m.locations[words[0]] = append(m.locations[words[0]], words)
	}
	// Longest entries first so multi-word names win
	for k := range m.locations {
		entries := m.locations[k]
		sort.SliceStable(entries, func(i, j int) bool { return len(entries[i]) > len(entries[j]) })
	}
	return m
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// Name returns the backend name
func (m *RuleModel) Name() string {
	return "rules"
}

// Explain returns the catalog description of label
func (m *RuleModel) Explain(label string) (string, bool) {
	return m.catalog.Explain(label)
}

// Labels returns the label catalog
func (m *RuleModel) Labels() map[string]string {
	return m.catalog.Labels()
}

// Annotate tokenizes text and recognizes dates, money, organizations, locations and people
func (m *RuleModel) Annotate(ctx context.Context, text string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := NewDoc(text)
	doc.Tokens = Tokenize(text)

	var candidates []Span
	offsets := runeOffsets(text)
	for _, re := range []*regexp.Regexp{dateLongRegexp, dateMonthRegexp, dateNumericRegexp} {
		candidates = append(candidates, regexSpans(text, offsets, re, LabelDate)...)
	}
	for _, re := range []*regexp.Regexp{moneyPrefixRegexp, moneySuffixRegexp} {
		candidates = append(candidates, regexSpans(text, offsets, re, LabelMoney)...)
	}
	words := wordTokens(doc.Tokens)
	candidates = append(candidates, m.orgSpans(words)...)
	candidates = append(candidates, m.locationSpans(words)...)
	candidates = append(candidates, m.personSpans(words)...)

	doc.Entities = resolveOverlaps(candidates)
	for i := range doc.Entities {
		doc.Entities[i].Text = doc.Slice(doc.Entities[i].Start, doc.Entities[i].End)
	}
	return doc, nil
}

func regexSpans(text string, offsets []int, re *regexp.Regexp, label string) []Span {
	indexes := re.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(indexes))
	for _, idx := range indexes {
		spans = append(spans, Span{Start: offsets[idx[0]], End: offsets[idx[1]], Label: label})
	}
	return spans
}

// orgSpans finds an institutional head word followed by capitalized words
func (m *RuleModel) orgSpans(tokens []Token) []Span {
	var spans []Span
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !isCapitalized(tok.Text) || !m.orgHeads[strings.ToLower(tok.Text)] {
			continue
		}
		last := m.extendName(tokens, i+1, 0)
		if last <= i {
			continue
		}
		spans = append(spans, Span{Start: tok.Start, End: tokens[last].End, Label: LabelOrg})
		i = last
	}
	return spans
}

// locationSpans matches gazetteer locations starting with a capital letter
func (m *RuleModel) locationSpans(tokens []Token) []Span {
	var spans []Span
	for i := 0; i < len(tokens); i++ {
		if !isCapitalized(tokens[i].Text) {
			continue
		}
		entries := m.locations[strings.ToLower(tokens[i].Text)]
		for _, words := range entries {
			if i+len(words) > len(tokens) {
				continue
			}
			matched := true
			for k, w := range words {
				if strings.ToLower(tokens[i+k].Text) != w {
					matched = false
					break
				}
			}
			if matched {
				spans = append(spans, Span{Start: tokens[i].Start, End: tokens[i+len(words)-1].End, Label: LabelLoc})
				i += len(words) - 1
				break
			}
		}
	}
	return spans
}

// personSpans finds capitalized runs led by a known first name or an honorific
func (m *RuleModel) personSpans(tokens []Token) []Span {
	var spans []Span
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lower := strings.ToLower(tok.Text)
		if !isCapitalized(tok.Text) || m.stopwords[lower] || m.orgHeads[lower] || m.honorifics[lower] {
			continue
		}

		minWords := 2
		if m.afterHonorific(tokens, i) {
			minWords = 1
		} else if !m.firstNames[lower] {
			continue
		}

		last := m.extendName(tokens, i+1, 3)
		if last < i {
			last = i
		}
		if capitalizedCount(tokens[i:last+1]) < minWords {
			continue
		}
		spans = append(spans, Span{Start: tok.Start, End: tokens[last].End, Label: LabelPerson})
		i = last
	}
	return spans
}

// extendName walks capitalized words and inner particles starting at from and
// returns the index of the last capitalized token, or from-1 when none.
// limit caps the number of capitalized words taken; 0 means unlimited.
func (m *RuleModel) extendName(tokens []Token, from int, limit int) int {
	last := from - 1
	taken := 0
	for j := from; j < len(tokens); j++ {
		text := tokens[j].Text
		lower := strings.ToLower(text)
		if m.particles[lower] {
			continue
		}
		if !isCapitalized(text) || m.stopwords[lower] {
			break
		}
		last = j
		taken++
		if limit > 0 && taken >= limit {
			break
		}
	}
	return last
}

func (m *RuleModel) afterHonorific(tokens []Token, i int) bool {
	j := i - 1
	if j >= 0 && tokens[j].Text == "." {
		j--
	}
	return j >= 0 && m.honorifics[strings.ToLower(tokens[j].Text)]
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func capitalizedCount(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if isCapitalized(t.Text) {
			n++
		}
	}
	return n
}

// resolveOverlaps keeps non-overlapping spans, longer first, and returns them in text order
func resolveOverlaps(candidates []Span) []Span {
	sort.SliceStable(candidates, func(i, j int) bool {
		li := candidates[i].End - candidates[i].Start
		lj := candidates[j].End - candidates[j].Start
		if li != lj {
			return li > lj
		}
		pi, pj := labelPriority[candidates[i].Label], labelPriority[candidates[j].Label]
		if pi != pj {
			return pi > pj
		}
		return candidates[i].Start < candidates[j].Start
	})

	kept := make([]Span, 0, len(candidates))
	for _, c := range candidates {
		if c.End <= c.Start {
			continue
		}
		overlaps := false
		for _, k := range kept {
			if c.Start < k.End && k.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
