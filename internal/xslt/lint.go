package xslt

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Lint reports house-style violations. It never fails: a document that
// cannot be parsed yields the warnings found up to that point.
func Lint(doc string) []string {
	var warnings []string
	dec := xml.NewDecoder(strings.NewReader(doc))

	templates := 0
	counts := map[string]int{}
	undeclared := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !isXSL(start.Name) {
			continue
		}
		if start.Name.Space == "xsl" {
			undeclared = true
		}
		switch start.Name.Local {
		case "template":
			templates++
		case "variable", "call-template":
			counts[start.Name.Local]++
		}
	}

	if undeclared {
		warnings = append(warnings, "xsl prefix is not bound to "+Namespace)
	}
	if n := counts["variable"]; n > 0 {
		warnings = append(warnings, fmt.Sprintf("uses xsl:variable (%d)", n))
	}
	if n := counts["call-template"]; n > 0 {
		warnings = append(warnings, fmt.Sprintf("uses xsl:call-template (%d)", n))
	}
	if templates > 1 {
		warnings = append(warnings, fmt.Sprintf("defines %d xsl:template elements, want at most one", templates))
	}
	return warnings
}
