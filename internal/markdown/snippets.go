// Package markdown holds the editor's formatting snippets and the terminal
// renderer used by the note preview.
package markdown

// Snippet is a formatting pair wrapped around the selection, or inserted at
// the cursor when nothing is selected.
type Snippet struct {
	Name   string
	Prefix string
	Suffix string
}

var Snippets = []Snippet{
	{Name: "H1", Prefix: "# "},
	{Name: "H2", Prefix: "## "},
	{Name: "Bold", Prefix: "**", Suffix: "**"},
	{Name: "Italic", Prefix: "_", Suffix: "_"},
	{Name: "List", Prefix: "- "},
	{Name: "Task", Prefix: "- [ ] "},
	{Name: "Quote", Prefix: "> "},
	{Name: "Code", Prefix: "`", Suffix: "`"},
	{Name: "Table", Prefix: "\n| Header 1 | Header 2 |\n| --- | --- |\n| Cell 1 | Cell 2 |\n"},
	{Name: "Link", Prefix: "[", Suffix: "](url)"},
	{Name: "Image", Prefix: "![alt](", Suffix: ")"},
}

// Lookup finds a snippet by name.
func Lookup(name string) (Snippet, bool) {
	for _, s := range Snippets {
		if s.Name == name {
			return s, true
		}
	}
	return Snippet{}, false
}

// Insert wraps content[start:end] with the snippet. Offsets count runes and
// are clamped to the content. It returns the new content and the selection
// moved past the prefix, so an empty selection leaves the cursor between
// prefix and suffix.
func Insert(content string, start, end int, s Snippet) (string, int, int) {
	r := []rune(content)
	start, end = clamp(start, len(r)), clamp(end, len(r))
	if start > end {
		start, end = end, start
	}

	prefix, suffix := []rune(s.Prefix), []rune(s.Suffix)
	out := make([]rune, 0, len(r)+len(prefix)+len(suffix))
	out = append(out, r[:start]...)
	out = append(out, prefix...)
	out = append(out, r[start:end]...)
	out = append(out, suffix...)
	out = append(out, r[end:]...)

	return string(out), start + len(prefix), end + len(prefix)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
