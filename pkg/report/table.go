package report

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteTable prints the island size histogram and totals as an aligned
// plain-text table. Numbers are grouped for the given language, falling
// back to English.
func (s *Summary) WriteTable(w io.Writer, lang language.Tag) error {
	if lang == language.Und {
		lang = language.English
	}
	p := message.NewPrinter(lang)

	if _, err := p.Fprintf(w, "%-12s %10s\n", "edges", "islands"); err != nil {
		return err
	}
	for _, b := range s.Histogram {
		if _, err := p.Fprintf(w, "%-12d %10d\n", b.Size, b.Count); err != nil {
			return err
		}
	}
	_, err := p.Fprintf(w, "%d islands, %d island edges, largest %d, %d traced, %d failed\n",
		s.Islands, s.Segmentation.IslandEdgesTotal, s.Segmentation.LargestIsland,
		s.Boundaries.Traced, s.Boundaries.Failed)
	return err
}
