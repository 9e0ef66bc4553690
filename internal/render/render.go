// Package render converts the constrained markdown subset used by advisor
// replies into HTML fragments for the chat transcript. The grammar is fixed:
// "# " / "## " headings, **bold**, *italic*, "- " bullet lines and blank-line
// paragraph breaks. Anything that does not match is passed through literally,
// so rendering never fails on malformed input.
package render

import (
	"html"
	"regexp"
	"strings"
)

// pass is a single pure text-to-text rewrite. Fragment applies the pipeline
// in declaration order, each pass exactly once over the whole string.
type pass struct {
	name  string
	apply func(string) string
}

var (
	reHeading1 = regexp.MustCompile(`(?m)^# (.*)$`)
	reHeading2 = regexp.MustCompile(`(?m)^## (.*)$`)
	// Bold is non-greedy and left-to-right; an unpaired ** finds no closing
	// marker and stays literal.
	reBold = regexp.MustCompile(`\*\*(.*?)\*\*`)
	// Italic runs after the bold pass and refuses asterisks inside the span,
	// so a leftover literal ** is not read as two empty italic markers.
	reItalic   = regexp.MustCompile(`\*([^*]+)\*`)
	reListItem = regexp.MustCompile(`(?m)^- (.*)$`)
	// A maximal run of list items separated by single line breaks.
	reListRun = regexp.MustCompile(`<li>.*?</li>(?:<br><li>.*?</li>)*`)
)

var pipeline = []pass{
	{"heading1", func(s string) string { return reHeading1.ReplaceAllString(s, "<h1>${1}</h1>") }},
	{"heading2", func(s string) string { return reHeading2.ReplaceAllString(s, "<h2>${1}</h2>") }},
	{"bold", func(s string) string { return reBold.ReplaceAllString(s, "<strong>${1}</strong>") }},
	{"italic", func(s string) string { return reItalic.ReplaceAllString(s, "<em>${1}</em>") }},
	{"listItem", func(s string) string { return reListItem.ReplaceAllString(s, "<li>${1}</li>") }},
	// Double newlines become a paragraph break before the single-newline pass
	// runs, otherwise they would be collapsed into two ordinary line breaks.
	{"paragraphBreak", func(s string) string { return strings.ReplaceAll(s, "\n\n", "<br><br>") }},
	{"lineBreak", func(s string) string { return strings.ReplaceAll(s, "\n", "<br>") }},
	{"wrapLists", wrapLists},
}

// Fragment renders advisor-authored text into an HTML fragment. It is a pure
// function of its input: no state, no randomness, no failure mode beyond
// leaving unmatched markers untouched.
func Fragment(text string) string {
	out := text
	for _, p := range pipeline {
		out = p.apply(out)
	}
	return out
}

// EscapeText is the user-content path: no markdown interpretation, and
// markup-significant characters are escaped so user input never executes as
// HTML. Advisor content skips this on purpose (it is trusted).
func EscapeText(text string) string {
	return html.EscapeString(text)
}

// wrapLists wraps each maximal run of <li> elements separated by single line
// breaks in one <ul>, dropping only the <br>s between items. Breaks before or
// after a run stay in place, so a blank line between items still yields
// separate containers and text following a list keeps its line break.
func wrapLists(s string) string {
	if !strings.Contains(s, "<li>") {
		return s
	}
	return reListRun.ReplaceAllStringFunc(s, func(run string) string {
		return "<ul>" + strings.ReplaceAll(run, "</li><br><li>", "</li><li>") + "</ul>"
	})
}
