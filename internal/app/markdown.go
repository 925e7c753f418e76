package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

const defaultHelpWidth = 80

type helpRendererKey struct {
	width int
	dark  bool
}

// helpRenderer renders the key table as markdown. Glamour renderers are
// cached per width and terminal background.
type helpRenderer struct {
	dark      bool
	renderers map[helpRendererKey]*glamour.TermRenderer
}

func newHelpRenderer() *helpRenderer {
	return &helpRenderer{
		dark:      true,
		renderers: map[helpRendererKey]*glamour.TermRenderer{},
	}
}

// setDark reports whether the background changed.
func (r *helpRenderer) setDark(dark bool) bool {
	changed := r.dark != dark
	r.dark = dark
	return changed
}

func (r *helpRenderer) render(bindings *Keybindings, itemsPath string, width int) string {
	if width <= 0 {
		width = defaultHelpWidth
	}
	source := helpMarkdown(bindings, itemsPath)
	tr := r.renderer(width)
	if tr == nil {
		return source
	}
	out, err := tr.Render(source)
	if err != nil {
		return source
	}
	out = xansi.Hardwrap(strings.TrimRight(out, "\n"), width, true)
	return strings.TrimRight(out, "\n")
}

func (r *helpRenderer) renderer(width int) *glamour.TermRenderer {
	key := helpRendererKey{width: width, dark: r.dark}
	if tr, ok := r.renderers[key]; ok {
		return tr
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStyles(helpStyleConfig(r.dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	r.renderers[key] = tr
	return tr
}

func helpStyleConfig(dark bool) glamouransi.StyleConfig {
	base := styles.LightStyleConfig
	if dark {
		base = styles.DarkStyleConfig
	}
	// The help overlay supplies its own frame.
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	faint := true
	color := "245"
	base.BlockQuote.StylePrimitive.Faint = &faint
	base.BlockQuote.StylePrimitive.Color = &color
	return base
}

func helpMarkdown(bindings *Keybindings, itemsPath string) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n| Key | Action |\n| --- | --- |\n")
	for _, command := range helpCommandOrder {
		fmt.Fprintf(&b, "| %s | %s |\n", tableCell(codeSpan(bindings.KeyFor(command, ""))), tableCell(Describe(command)))
	}
	b.WriteString("\n## Items\n\n")
	if itemsPath != "" {
		fmt.Fprintf(&b, "Items are read from %s, one per line.\n", codeSpan(itemsPath))
	}
	b.WriteString("Write `label|value` to give an item a value, `---` for a separator, and start a line with `#` to comment it out.\n")
	b.WriteString("\n> Selections survive reloads. Items that vanish from the file are unselected.\n")
	return b.String()
}

// codeSpan fences text with one more backtick than its longest run.
func codeSpan(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	fence := strings.Repeat("`", longest+1)
	if longest > 0 {
		return fence + " " + text + " " + fence
	}
	return fence + text + fence
}

func tableCell(text string) string {
	return strings.ReplaceAll(text, "|", `\|`)
}
