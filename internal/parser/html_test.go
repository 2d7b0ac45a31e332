package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_AnchorsAndLists(t *testing.T) {
	input := `<html><head><title>Plan</title></head><body>
<h1 id="plan">Plan</h1>
<section id="parser-design"><h2>Parser Design</h2>
<p>requested-time:</p>
<ul><li>2 hrs</li><li>30m</li></ul>
</section>
<h2><a name="lex"></a>Lexer</h2>
<p>requested-time: 1h</p>
<h2 id="a"><span id="b">Both</span></h2>
<h2>Bare</h2>
</body></html>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "plan.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Plan" {
		t.Errorf("expected title %q, got %q", "Plan", tree.Title)
	}
	plan := tree.Children[0]
	if len(plan.Children) != 4 {
		t.Fatalf("expected 4 h2 children, got %d", len(plan.Children))
	}

	parser := plan.Children[0]
	if parser.Anchor() != "parser-design" {
		t.Errorf("expected section id anchor, got %v", parser.Anchors)
	}
	if want := "requested-time:\n\n- 2 hrs\n- 30m"; parser.Text != want {
		t.Errorf("expected text %q, got %q", want, parser.Text)
	}
	if plan.Children[1].Anchor() != "lex" {
		t.Errorf("expected <a name> anchor, got %v", plan.Children[1].Anchors)
	}
	if got := plan.Children[2].Anchors; len(got) != 2 {
		t.Errorf("expected two anchors, got %v", got)
	}
	if got := plan.Children[3].Anchors; len(got) != 0 {
		t.Errorf("expected no anchors, got %v", got)
	}
}
