package render

import (
	"fmt"
	"strings"
)

// Markdown accumulates a markdown document.
type Markdown struct {
	b strings.Builder
}

func (m *Markdown) Heading(level int, text string) *Markdown {
	m.b.WriteString(strings.Repeat("#", level))
	m.b.WriteByte(' ')
	m.b.WriteString(text)
	m.b.WriteString("\n\n")
	return m
}

// Line writes text as one line terminated by a newline.
func (m *Markdown) Line(text string) *Markdown {
	m.b.WriteString(text)
	m.b.WriteByte('\n')
	return m
}

func (m *Markdown) Linef(format string, args ...any) *Markdown {
	fmt.Fprintf(&m.b, format, args...)
	m.b.WriteByte('\n')
	return m
}

func (m *Markdown) Blank() *Markdown {
	m.b.WriteByte('\n')
	return m
}

func (m *Markdown) Quote(text string) *Markdown {
	m.b.WriteString("> ")
	return m.Line(text)
}

func (m *Markdown) Quotef(format string, args ...any) *Markdown {
	m.b.WriteString("> ")
	return m.Linef(format, args...)
}

// Bullet writes "- **label**: value".
func (m *Markdown) Bullet(label, value string) *Markdown {
	return m.Linef("- **%s**: %s", label, value)
}

// TableHeader starts a two-column item/value table.
func (m *Markdown) TableHeader() *Markdown {
	m.b.WriteString("| 항목 | 내용 |\n|------|------|\n")
	return m
}

func (m *Markdown) Row(label, value string) *Markdown {
	return m.Linef("| **%s** | %s |", label, value)
}

// RowIf writes the row only when value is non-blank.
func (m *Markdown) RowIf(label, value string) *Markdown {
	if strings.TrimSpace(value) == "" {
		return m
	}
	return m.Row(label, value)
}

// Tip writes the closing hint line.
func (m *Markdown) Tip(text string) *Markdown {
	m.b.WriteString("---\n> 💡 **Tip**: ")
	m.b.WriteString(text)
	m.b.WriteByte('\n')
	return m
}

func (m *Markdown) Raw(text string) *Markdown {
	m.b.WriteString(text)
	return m
}

func (m *Markdown) String() string {
	return m.b.String()
}
