package explorer

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/broadstream/qgem/biz/model/api"
)

const defaultWidth = 80

func (m Model) View() string {
	var b strings.Builder

	location := m.opts.Bucket + "/" + m.Path()
	b.WriteString(titleStyle.Render("QGEM storage " + location))
	b.WriteString("\n\n")

	if m.loading {
		fmt.Fprintf(&b, " %s loading %s...\n", m.spinner.View(), location)
		return b.String()
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render("error: "+m.err) + "\n\n")
	}
	if m.refreshing {
		fmt.Fprintf(&b, " %s refreshing...\n", m.spinner.View())
	}

	if len(m.rows) == 0 && m.data != nil {
		b.WriteString(mutedStyle.Render("  (empty folder)") + "\n")
	}

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	for i, r := range m.rows {
		b.WriteString(m.renderRow(i, r, width))
		b.WriteByte('\n')
	}

	if m.data != nil {
		fmt.Fprintf(&b, "\n%s\n", mutedStyle.Render(fmt.Sprintf("%d folders, %d files, %d selected",
			m.data.TotalFolders, m.data.TotalFiles, m.selection.Len())))
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(mutedStyle.Render("enter open/download  backspace up  space select  c clear  g games.json  r refresh  q quit"))
	return b.String()
}

func (m Model) renderRow(i int, r row, width int) string {
	pointer := "  "
	if i == m.cursor {
		pointer = cursorStyle.Render("> ")
	}
	mark := "[ ]"
	if m.selection.Has(m.resource(r)) {
		mark = selectedStyle.Render("[x]")
	}

	var line string
	switch {
	case r.folder:
		line = folderStyle.Render(r.name + "/")
	case m.downloading[r.name]:
		line = mutedStyle.Render(r.name + "  downloading...")
	default:
		line = r.name + "  " + mutedStyle.Render(r.info)
	}
	return truncate.StringWithTail(pointer+mark+" "+line, uint(width), "…")
}

func describe(f api.FileItem) string {
	parts := []string{f.FileType, humanSize(f.Metadata.Size)}
	if f.UpdatedAt != nil {
		parts = append(parts, *f.UpdatedAt)
	}
	return strings.Join(parts, "  ")
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
