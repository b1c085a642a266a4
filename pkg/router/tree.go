package router

import (
	"regexp"
	"strings"
)

// RouteNode is a node in the route tree.
type RouteNode struct {
	// seg is the compiled segment this node matches. Zero for the root.
	seg segment

	parent *RouteNode

	// handlers by method, each list in registration order
	handlers map[Method][]HandlerFunc

	// methods records the order in which methods were first registered
	methods []Method

	// children by kind, each bucket in registration order
	literals  []*RouteNode
	params    []*RouteNode
	wildcards []*RouteNode

	// index finds a child by its expression
	index map[string]*RouteNode
}

// newRouteNode creates a new route node.
func newRouteNode(seg segment, parent *RouteNode) *RouteNode {
	return &RouteNode{
		seg:      seg,
		parent:   parent,
		handlers: make(map[Method][]HandlerFunc),
		index:    make(map[string]*RouteNode),
	}
}

// addChild adds or retrieves the child matching seg.
func (n *RouteNode) addChild(seg segment) *RouteNode {
	if child, ok := n.index[seg.key]; ok {
		return child
	}

	child := newRouteNode(seg, n)
	n.index[seg.key] = child

	switch seg.kind {
	case kindLiteral:
		n.literals = append(n.literals, child)
	case kindParam:
		n.params = append(n.params, child)
	default:
		n.wildcards = append(n.wildcards, child)
	}
	return child
}

// insert walks (creating as needed) the nodes for segments and appends
// handlers under method on the last one.
func (n *RouteNode) insert(segments []segment, method Method, handlers []HandlerFunc) *RouteNode {
	current := n
	for _, seg := range segments {
		current = current.addChild(seg)
	}
	current.add(method, handlers)
	return current
}

func (n *RouteNode) add(method Method, handlers []HandlerFunc) {
	if _, ok := n.handlers[method]; !ok {
		n.methods = append(n.methods, method)
	}
	n.handlers[method] = append(n.handlers[method], handlers...)
}

// children returns the children in match order: literal, param, wildcard.
func (n *RouteNode) children() []*RouteNode {
	out := make([]*RouteNode, 0, len(n.literals)+len(n.params)+len(n.wildcards))
	out = append(out, n.literals...)
	out = append(out, n.params...)
	out = append(out, n.wildcards...)
	return out
}

// level returns the node's before hooks followed by its method handlers.
func (n *RouteNode) level(method Method) []HandlerFunc {
	before := n.handlers[MethodBefore]
	hs := n.handlers[method]
	if len(before)+len(hs) == 0 {
		return nil
	}
	out := make([]HandlerFunc, 0, len(before)+len(hs))
	out = append(out, before...)
	out = append(out, hs...)
	return out
}

func (n *RouteNode) isRoot() bool {
	return n.parent == nil
}

// pattern rebuilds the route pattern of the node.
func (n *RouteNode) pattern(delimiter string) string {
	var parts []string
	for node := n; !node.isRoot(); node = node.parent {
		parts = append(parts, node.seg.source)
	}
	if len(parts) == 0 {
		return delimiter
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return delimiter + strings.Join(parts, delimiter)
}

// trail is what a successful traversal collects. Levels and after hooks
// are ordered leaf to root.
type trail struct {
	leaf     *RouteNode
	levels   [][]HandlerFunc
	after    []HandlerFunc
	captures []string
}

func (t *trail) push(n *RouteNode) {
	if level := n.level(MethodOn); len(level) > 0 {
		t.levels = append(t.levels, level)
	}
	t.after = append(t.after, n.handlers[MethodAfter]...)
}

// traversal resolves one path against the tree.
type traversal struct {
	method    Method
	path      string
	delimiter string
	strict    bool
	recurse   bool
	cache     *regexpCache
}

// walk tries the children of n in match order. prefix is the cumulative
// expression of n.
//
// A child matches when the expression anchored at the start of the path
// accepts a prefix of it. It is the terminal node when it consumes the
// whole path and holds handlers for the method; otherwise its own
// children are tried, backtracking to the next sibling on failure.
func (t *traversal) walk(n *RouteNode, prefix string) (*trail, bool) {
	delim := regexp.QuoteMeta(t.delimiter)

	for _, child := range n.children() {
		current := prefix + delim + child.seg.key
		exact := current
		if !t.strict {
			exact += "(?:" + delim + ")?"
		}

		re, err := t.cache.get("^" + exact)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(t.path)
		if m == nil {
			continue
		}

		if m[0] == t.path && len(child.handlers[t.method]) > 0 {
			tr := &trail{leaf: child, captures: m[1:]}
			if level := child.level(t.method); len(level) > 0 {
				tr.levels = append(tr.levels, level)
			}
			tr.after = append(tr.after, child.handlers[MethodAfter]...)
			if t.recurse && n.isRoot() {
				tr.push(n)
			}
			return tr, true
		}

		tr, ok := t.walk(child, current)
		if !ok {
			continue
		}
		if t.recurse {
			tr.push(child)
			if n.isRoot() {
				tr.push(n)
			}
		}
		return tr, true
	}

	return nil, false
}

// walkRoutes calls fn for every node holding handlers, depth first in
// match order.
func (n *RouteNode) walkRoutes(fn func(*RouteNode) error) error {
	if len(n.methods) > 0 {
		if err := fn(n); err != nil {
			return err
		}
	}
	for _, child := range n.children() {
		if err := child.walkRoutes(fn); err != nil {
			return err
		}
	}
	return nil
}
