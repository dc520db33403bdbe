package extract

import (
	"regexp"
	"strings"
)

// sniffLines is how many leading lines the crawler's source marker may occupy.
const sniffLines = 3

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// SourceURL returns the first URL found in the first three lines of content.
// URLs further down belong to the article itself and are ignored.
func SourceURL(content []byte) (string, bool) {
	lines := strings.SplitN(string(content), "\n", sniffLines+1)
	if len(lines) > sniffLines {
		lines = lines[:sniffLines]
	}
	for _, line := range lines {
		if match := urlPattern.FindString(line); match != "" {
			return match, true
		}
	}
	return "", false
}
