// Package xslt finds the stylesheet in a model reply and checks it.
package xslt

import (
	"regexp"
	"strings"
)

// stylesheetPattern matches the first opening tag through the first closing
// tag after it. The tag name must end at whitespace, '/' or '>' so that
// names like <xsl:stylesheetx> are not taken for the element.
var stylesheetPattern = regexp.MustCompile(`(?s)<xsl:stylesheet[\s/>].*?</xsl:stylesheet>`)

// Result is the outcome of scanning a reply.
type Result struct {
	XSLT      string `json:"xslt,omitempty" yaml:"xslt,omitempty"`
	Found     bool   `json:"found" yaml:"found"`
	Remainder string `json:"remainder" yaml:"remainder"`
}

// Extract separates the first stylesheet in reply from the surrounding text.
//
// When found, Remainder is the reply with the span removed and outer
// whitespace trimmed. Inner whitespace is left alone. When not found,
// Remainder is the reply unchanged.
func Extract(reply string) Result {
	loc := stylesheetPattern.FindStringIndex(reply)
	if loc == nil {
		return Result{Remainder: reply}
	}
	return Result{
		XSLT:      reply[loc[0]:loc[1]],
		Found:     true,
		Remainder: strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:]),
	}
}
