package search

import (
	"strings"
)

// ExtractTitle derives a note's display title: skip leading YAML
// frontmatter delimited by "---" on its own line, then take the first
// non-empty line's "# " heading, trimmed; otherwise fall back to the
// filename (last path segment, trailing ".md" removed).
func ExtractTitle(path, content string) string {
	inFrontmatter := false
	frontmatterStarted := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "---" {
			if !frontmatterStarted {
				frontmatterStarted = true
				inFrontmatter = true
				continue
			} else if inFrontmatter {
				inFrontmatter = false
				continue
			}
		}

		if inFrontmatter {
			continue
		}
		if trimmed == "" {
			continue
		}
		if title, ok := strings.CutPrefix(trimmed, "# "); ok {
			return strings.TrimSpace(title)
		}
		break
	}

	return fallbackTitleFromPath(path)
}

func fallbackTitleFromPath(path string) string {
	trimmed := strings.TrimSuffix(path, ".md")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
