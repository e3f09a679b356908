package converter

import (
	"strings"

	"golang.org/x/net/html"
)

// flattenHTMLTables rewrites inline <table> blocks in OCR markdown into
// plain "cell | cell" rows. The replacement occupies exactly as many
// lines as the original block, so line-anchored provenance in the
// sidecar descriptor is unaffected.
func flattenHTMLTables(text string) string {
	lines := strings.Split(text, "\n")
	var out []string

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(strings.ToLower(trimmed), "<table") {
			out = append(out, lines[i])
			continue
		}

		// Collect the block up to the closing tag (or EOF if unclosed).
		end := i
		for end < len(lines) && !strings.Contains(strings.ToLower(lines[end]), "</table>") {
			end++
		}
		if end == len(lines) {
			end--
		}
		block := strings.Join(lines[i:end+1], "\n")
		rows := tableRows(block)
		out = append(out, fitLines(rows, end-i+1)...)
		i = end
	}
	return strings.Join(out, "\n")
}

// tableRows parses an HTML fragment and returns one text line per table
// row, cells joined with " | ".
func tableRows(fragment string) []string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return []string{textContent(doc)}
	}

	var rows []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

// fitLines pads or folds rows to occupy exactly n output lines.
func fitLines(rows []string, n int) []string {
	if len(rows) > n {
		overflow := strings.Join(rows[n-1:], " ; ")
		rows = append(rows[:n-1:n-1], overflow)
	}
	for len(rows) < n {
		rows = append(rows, "")
	}
	return rows
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
