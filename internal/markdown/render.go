package markdown

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

const DefaultWidth = 80

// Renderer turns markdown into styled terminal text. The underlying glamour
// renderer is rebuilt only when the wrap width changes.
type Renderer struct {
	mu    sync.Mutex
	style string
	width int
	tr    *glamour.TermRenderer
}

// NewRenderer uses a glamour standard style such as styles.DarkStyle or
// styles.NoTTYStyle. An empty style means dark.
func NewRenderer(style string) *Renderer {
	if style == "" {
		style = styles.DarkStyle
	}
	return &Renderer{style: style}
}

func (r *Renderer) Render(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tr == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		r.tr, r.width = tr, width
	}

	out, err := r.tr.Render(content)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
