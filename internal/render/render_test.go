package render

import (
	"strings"
	"testing"
)

func TestFragmentPlainText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no markers", "just a sentence", "just a sentence"},
		{"single newline", "line one\nline two", "line one<br>line two"},
		{"double newline", "para one\n\npara two", "para one<br><br>para two"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fragment(tc.in); got != tc.want {
				t.Fatalf("Fragment(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFragmentHeadings(t *testing.T) {
	if got := Fragment("# Title"); got != "<h1>Title</h1>" {
		t.Fatalf("unexpected h1 output: %q", got)
	}
	if got := Fragment("## Treatment"); got != "<h2>Treatment</h2>" {
		t.Fatalf("unexpected h2 output: %q", got)
	}

	// Heading markers are anchored to line starts.
	got := Fragment("sentence with # not-heading")
	if strings.Contains(got, "<h1>") {
		t.Fatalf("mid-sentence marker produced a heading: %q", got)
	}
	if got != "sentence with # not-heading" {
		t.Fatalf("mid-sentence marker altered text: %q", got)
	}

	got = Fragment("# Title\nbody text")
	if got != "<h1>Title</h1><br>body text" {
		t.Fatalf("heading extraction stopped at wrong place: %q", got)
	}
}

func TestFragmentBoldItalic(t *testing.T) {
	if got := Fragment("**bold**"); got != "<strong>bold</strong>" {
		t.Fatalf("unexpected bold output: %q", got)
	}
	if got := Fragment("*soft*"); got != "<em>soft</em>" {
		t.Fatalf("unexpected italic output: %q", got)
	}

	// Unpaired markers stay literal, with no partial substitution.
	if got := Fragment("**unterminated"); !strings.Contains(got, "**unterminated") {
		t.Fatalf("unpaired bold marker was rewritten: %q", got)
	}
	if got := Fragment("lone * star"); got != "lone * star" {
		t.Fatalf("lone asterisk was rewritten: %q", got)
	}

	// Bold runs before italic, so ** is consumed and never read as two
	// single-asterisk matches.
	got := Fragment("**b** and *i*")
	if got != "<strong>b</strong> and <em>i</em>" {
		t.Fatalf("bold/italic ordering broke: %q", got)
	}
}

func TestFragmentListWrapping(t *testing.T) {
	got := Fragment("- a\n- b")
	if got != "<ul><li>a</li><li>b</li></ul>" {
		t.Fatalf("unexpected list output: %q", got)
	}
	if strings.Count(got, "<ul>") != 1 {
		t.Fatalf("adjacent items split into %d containers: %q", strings.Count(got, "<ul>"), got)
	}

	// A blank line between items separates the runs and stays visible.
	got = Fragment("- a\n\n- b")
	if got != "<ul><li>a</li></ul><br><br><ul><li>b</li></ul>" {
		t.Fatalf("blank-line separated items rendered wrong: %q", got)
	}

	// Only the breaks between items are absorbed; a break after the final
	// item survives.
	got = Fragment("- a\nplain text")
	if got != "<ul><li>a</li></ul><br>plain text" {
		t.Fatalf("trailing line break was swallowed: %q", got)
	}

	got = Fragment("intro:\n- a\n- b\nafter")
	if got != "intro:<br><ul><li>a</li><li>b</li></ul><br>after" {
		t.Fatalf("list surrounded by text rendered wrong: %q", got)
	}

	// A dash mid-sentence is not a list item.
	if got := Fragment("a - b"); got != "a - b" {
		t.Fatalf("mid-sentence dash was rewritten: %q", got)
	}
}

func TestFragmentTreatmentReply(t *testing.T) {
	got := Fragment("## Treatment\n- Apply fungicide\n- Remove affected leaves")
	want := "<h2>Treatment</h2><br><ul><li>Apply fungicide</li><li>Remove affected leaves</li></ul>"
	if got != want {
		t.Fatalf("Fragment = %q, want %q", got, want)
	}
}

func TestFragmentIsPure(t *testing.T) {
	in := "# Title\n\n**bold** *italic*\n- item"
	if Fragment(in) != Fragment(in) {
		t.Fatal("Fragment is not deterministic")
	}
}

func TestEscapeText(t *testing.T) {
	if got := EscapeText(`<img src=x onerror=alert(1)>`); strings.ContainsAny(got, "<>") {
		t.Fatalf("markup survived escaping: %q", got)
	}
	// User content is never interpreted as markdown.
	if got := EscapeText("**hi**"); got != "**hi**" {
		t.Fatalf("user content was rewritten: %q", got)
	}
}
