package printer

import (
	"fmt"

	asciitree "github.com/thediveo/go-asciitree"

	"cflow/model"
)

// treeNode is the asciitree.RenderFancy input shape, following the
// label/properties/children tagging convention.
type treeNode struct {
	Label    string     `asciitree:"label"`
	Props    []string   `asciitree:"properties"`
	Children []treeNode `asciitree:"children"`
}

// AsciiTree renders root as a debug ASCII tree, supplementing (not
// replacing) the Structured text dump: useful for eyeballing nesting and
// loop ownership at a glance.
func AsciiTree[M, C any](root *model.CodeBlock[M, C]) string {
	return asciitree.RenderFancy(asciiBlock(root, "root"))
}

func asciiBlock[M, C any](b *model.CodeBlock[M, C], label string) treeNode {
	n := treeNode{Label: label}

	for _, item := range b.Items() {
		n.Children = append(n.Children, asciiItem[M, C](item))
	}

	return n
}

func asciiItem[M, C any](item model.Item[M, C]) treeNode {
	switch it := item.(type) {
	case model.MutationItem[M, C]:
		return treeNode{Label: "mutation", Props: []string{fmt.Sprintf("value: %v", it.Value)}}

	case model.ReturnItem[M, C]:
		return treeNode{Label: "return"}

	case model.ContinueItem[M, C]:
		return treeNode{Label: "continue", Props: labelProp(it.Target)}

	case model.BreakItem[M, C]:
		return treeNode{Label: "break", Props: labelProp(it.Target)}

	case model.IfItem[M, C]:
		return treeNode{
			Label:    "if",
			Props:    []string{fmt.Sprintf("cond: %v", it.Cond)},
			Children: []treeNode{asciiBlock(it.Then, "then")},
		}

	case model.IfElseItem[M, C]:
		return treeNode{
			Label: "if-else",
			Props: []string{fmt.Sprintf("cond: %v", it.Cond)},
			Children: []treeNode{
				asciiBlock(it.Then, "then"),
				asciiBlock(it.Else, "else"),
			},
		}

	case model.WhileItem[M, C]:
		return treeNode{
			Label:    "while",
			Props:    append([]string{fmt.Sprintf("cond: %v", it.Cond)}, labelProp(it.Loop)...),
			Children: []treeNode{asciiBlock(it.Body, "body")},
		}

	case model.DoWhileItem[M, C]:
		return treeNode{
			Label:    "do-while",
			Props:    append([]string{fmt.Sprintf("cond: %v", it.Cond)}, labelProp(it.Loop)...),
			Children: []treeNode{asciiBlock(it.Body, "body")},
		}

	default:
		return treeNode{Label: fmt.Sprintf("unknown(%T)", item)}
	}
}

func labelProp[M, C any](l *model.Loop[M, C]) []string {
	if l.Label() == "" {
		return nil
	}

	return []string{fmt.Sprintf("label: %s", l.Label())}
}
