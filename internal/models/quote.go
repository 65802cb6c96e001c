package models

import (
	"strings"
	"unicode"
)

type Quote struct {
	Text string `json:"text" yaml:"text"`
	By   string `json:"by" yaml:"by"`
}

// Dir returns the text direction used to render the quote.
func (q Quote) Dir() string {
	for _, r := range q.Text {
		if unicode.Is(unicode.Arabic, r) {
			return "rtl"
		}
	}
	return "ltr"
}

// QuoteOverride is the visitor's own quote, shown instead of the built-in one.
type QuoteOverride struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

func (o QuoteOverride) IsBlank() bool {
	return strings.TrimSpace(o.Text) == ""
}
