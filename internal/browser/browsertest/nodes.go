package browsertest

// TextNode returns a node whose text is text.
func TextNode(text string) *Node {
	return &Node{Text: text}
}

// LinkNode returns a node with an href attribute.
func LinkNode(href string) *Node {
	return &Node{Attrs: map[string]string{"href": href}}
}

// ParentNode returns a node whose children are looked up by selector.
func ParentNode(children map[string]*Node) *Node {
	n := &Node{Children: make(map[string][]*Node, len(children))}
	for sel, child := range children {
		n.Children[sel] = []*Node{child}
	}
	return n
}
