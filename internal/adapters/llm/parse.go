package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var numberedLine = regexp.MustCompile(`^\s*(\d+)\s*[.):]\s*(.+?)\s*$`)

// ParseNumberedList extracts a numbered list of n items from completion
// text. Items come back in their numbered order; surrounding quotes and
// markdown emphasis are stripped.
func ParseNumberedList(text string, n int) ([]string, error) {
	items := make([]string, n)
	found := 0
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx := 0
		fmt.Sscanf(m[1], "%d", &idx)
		if idx < 1 || idx > n || items[idx-1] != "" {
			continue
		}
		items[idx-1] = cleanItem(m[2])
		found++
	}
	if found < n {
		return nil, fmt.Errorf("%w: wanted %d items, found %d", ErrUnparsableCompletion, n, found)
	}
	return items, nil
}

func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}
