package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/doctimeline/internal/doctree"
	"github.com/dgallion1/doctimeline/internal/ref"
)

const underlineChars = "=-~^\"'+*#:.`"

var (
	targetRe = regexp.MustCompile(`^\.\.\s+_([^:]+):\s*$`)
	bulletRe = regexp.MustCompile(`^\s*[*+•]\s+`)
)

// TextParser handles plain text files. A one-line paragraph underlined with
// a run of punctuation ("Title\n=====") opens a section; the underline
// characters rank section levels in order of first use. A ".. _name:" line
// names the next section's anchor, otherwise the anchor is the title slug.
// Text without titles becomes untitled top-level paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs [][]string
	var current []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, bulletRe.ReplaceAllString(line, "- "))
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".txt"),
	}

	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}
	root := &doctree.DocNode{Title: tree.Title}
	stack := []stackEntry{{node: root, level: 0}}
	levels := map[byte]int{}
	var pendingAnchor string

	for _, para := range paragraphs {
		if len(para) == 1 {
			if m := targetRe.FindStringSubmatch(strings.TrimSpace(para[0])); m != nil {
				pendingAnchor = strings.TrimSpace(m[1])
				continue
			}
		}

		if len(para) >= 2 && isUnderline(para[1]) && strings.TrimSpace(para[0]) != "" {
			title := strings.TrimSpace(para[0])
			mark := strings.TrimSpace(para[1])[0]
			level, ok := levels[mark]
			if !ok {
				level = len(levels) + 1
				levels[mark] = level
			}

			anchor := ref.Slugify(title)
			if pendingAnchor != "" {
				anchor = pendingAnchor
				pendingAnchor = ""
			}
			newNode := &doctree.DocNode{Title: title, Anchors: []string{anchor}}
			for len(stack) > 1 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, newNode)
			stack = append(stack, stackEntry{node: newNode, level: level})

			if rest := strings.Join(para[2:], "\n"); rest != "" {
				newNode.Text = rest
			}
			continue
		}

		text := strings.Join(para, "\n")
		top := stack[len(stack)-1].node
		if top == root {
			// Untitled paragraphs before the first section stay top-level.
			root.Children = append(root.Children, &doctree.DocNode{Text: text})
			continue
		}
		if top.Text != "" {
			top.Text += "\n\n" + text
		} else {
			top.Text = text
		}
	}

	tree.Children = root.Children
	return tree, nil
}

// isUnderline reports whether line is a run of at least three identical
// section punctuation characters.
func isUnderline(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 3 || !strings.ContainsRune(underlineChars, rune(line[0])) {
		return false
	}
	return strings.Count(line, line[:1]) == len(line)
}
