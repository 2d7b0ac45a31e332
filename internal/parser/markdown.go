package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/doctimeline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings get their
// anchor from an explicit {#id} attribute or goldmark's generated id.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithParserOptions(
		gmparser.WithAutoHeadingID(),
		gmparser.WithAttribute(),
	))
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	// Walk the AST and build a tree based on heading levels.
	// We use a stack to track the current nesting.
	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}

	// Root is level 0; all h1+ nest under it.
	root := &doctree.DocNode{Title: tree.Title}
	stack := []stackEntry{{node: root, level: 0}}

	var currentText bytes.Buffer

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].node
			if top.Text != "" {
				top.Text += "\n\n" + t
			} else {
				top.Text = t
			}
		}
		currentText.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flushText()
			level := node.Level
			newNode := &doctree.DocNode{Title: inlineText(node, src)}
			if id, ok := node.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok && len(b) > 0 {
					newNode.Anchors = []string{string(b)}
				}
			}

			// Pop stack until we find a parent with lower level.
			for len(stack) > 1 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}

			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, newNode)
			stack = append(stack, stackEntry{node: newNode, level: level})

		default:
			t := blockText(n, src)
			if t != "" {
				if currentText.Len() > 0 {
					currentText.WriteString("\n\n")
				}
				currentText.WriteString(t)
			}
		}
	}
	flushText()

	tree.Children = root.Children
	// If there were no headings, put all text in a single child.
	if len(tree.Children) == 0 && root.Text != "" {
		tree.Children = []*doctree.DocNode{{Text: root.Text}}
	}

	return tree, nil
}

// blockText renders a block node as plain lines. List items become "- item"
// lines; code blocks keep their source lines.
func blockText(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.List:
		var items []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			item := strings.Join(strings.Fields(blockText(c, src)), " ")
			if item != "" {
				items = append(items, "- "+item)
			}
		}
		return strings.Join(items, "\n")
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	case *ast.Paragraph, *ast.TextBlock:
		return inlineText(n, src)
	default:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	}
}

// inlineText concatenates the text segments below n, keeping line breaks.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
