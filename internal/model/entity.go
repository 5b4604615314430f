package model

// Entity is a labeled span of the input text
type Entity struct {
	Text        string  `json:"text"`        // Source text between Start and End
	Start       int     `json:"start"`       // Character offset (0-based, inclusive)
	End         int     `json:"end"`         // Character offset (exclusive)
	Type        string  `json:"type"`        // Model label (PER, ORG, ...) or lexicon category (LAW, NORM)
	Description *string `json:"description"` // Label explanation, null when the catalog has none
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Offsets returns the (start, end) pair used for duplicate suppression
func (e Entity) Offsets() [2]int {
	return [2]int{e.Start, e.End}
}
