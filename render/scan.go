package render

import (
	"bufio"
	"io"
	"regexp"

	"github.com/goaux/iter/bufioscanner"
)

// Tag is a "{{ ... }}" occurrence found by Scan.
type Tag struct {
	Line int
	Text string
	Name string

	// Exact reports that the tag is spelled the way the placeholder engine
	// matches it: one space on each side of the name.
	Exact bool
}

var reTag = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Scan lists the variable tags of a template, line by line.
func Scan(r io.Reader) ([]Tag, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var tags []Tag
	n := 0
	for _, line := range bufioscanner.New(sc).Text() {
		n++
		for _, m := range reTag.FindAllStringSubmatch(line, -1) {
			tags = append(tags, Tag{
				Line:  n,
				Text:  m[0],
				Name:  m[1],
				Exact: m[0] == Token(m[1]),
			})
		}
	}
	return tags, sc.Err()
}

// Unmatched returns the tags the placeholder engine would leave in the output
// given the known names.
func Unmatched(tags []Tag, known map[string]string) []Tag {
	var out []Tag
	for _, t := range tags {
		if _, ok := known[t.Name]; ok && t.Exact {
			continue
		}
		out = append(out, t)
	}
	return out
}
