package router

import (
	"regexp"
	"strings"
	"sync"
)

const (
	// paramClass is the default expression for a named capture.
	paramClass = `([._a-zA-Z0-9-%()]+)`

	// wildcardClass is the expression a bare * expands to.
	wildcardClass = `([_.()! %@&a-zA-Z0-9-]+)`

	// regexMeta are the characters that make a segment a raw expression.
	regexMeta = `()[]{}|+?^$`
)

// nodeKind tags a route node. Children are tried in kind order.
type nodeKind uint8

const (
	kindLiteral nodeKind = iota
	kindParam
	kindWildcard
)

func (k nodeKind) String() string {
	switch k {
	case kindLiteral:
		return "literal"
	case kindParam:
		return "param"
	default:
		return "wildcard"
	}
}

// segment is one compiled pattern segment.
type segment struct {
	kind nodeKind

	// source is the segment as written in the pattern.
	source string

	// key is the regular expression fragment matching the segment.
	key string
}

// splitPattern splits a pattern on the delimiter, keeping groups and
// classes that contain the delimiter intact. Empty segments are dropped.
func splitPattern(pattern, delimiter string) ([]string, error) {
	var (
		segments []string
		current  strings.Builder
		parens   int
		inClass  bool
		escaped  bool
	)

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			parens++
		case c == ')':
			if parens == 0 {
				return nil, patternError(pattern, "", "unexpected ) at offset %d", i)
			}
			parens--
		case parens == 0 && strings.HasPrefix(pattern[i:], delimiter):
			if current.Len() > 0 {
				segments = append(segments, current.String())
			}
			current.Reset()
			i += len(delimiter) - 1
			continue
		}

		current.WriteByte(c)
	}

	if parens > 0 {
		return nil, patternError(pattern, "", "unbalanced parentheses: %d group(s) left open", parens)
	}
	if inClass {
		return nil, patternError(pattern, "", "unterminated character class")
	}
	if escaped {
		return nil, patternError(pattern, "", "trailing backslash")
	}

	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments, nil
}

// compileSegment translates one pattern segment into its expression.
//
// A segment containing a backslash is taken as a raw expression. Otherwise
// :name becomes the named capture expression, a * that follows a word
// character (or starts the segment) becomes the wildcard expression, and
// the rest is quoted unless the segment uses expression syntax.
func (r *Router) compileSegment(pattern, seg string) (segment, error) {
	if strings.Contains(seg, `\`) {
		if _, err := regexp.Compile("^" + seg + "$"); err != nil {
			return segment{}, patternError(pattern, seg, "%v", err)
		}
		return segment{kind: kindWildcard, source: seg, key: seg}, nil
	}

	raw := strings.ContainsAny(seg, regexMeta)
	for i := 0; i < len(seg); i++ {
		if seg[i] == '*' && !isWildcardAt(seg, i) {
			raw = true
		}
	}

	var (
		key         strings.Builder
		hasParam    bool
		hasWildcard bool
	)

	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c == ':' && i+1 < len(seg) && isNameByte(seg[i+1]):
			end := i + 1
			for end < len(seg) && isNameByte(seg[end]) {
				end++
			}
			key.WriteString(r.paramExpr(seg[i+1 : end]))
			hasParam = true
			i = end - 1
		case c == '*' && isWildcardAt(seg, i):
			key.WriteString(wildcardClass)
			hasWildcard = true
		case raw:
			key.WriteByte(c)
		default:
			key.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	out := segment{source: seg, key: key.String()}
	switch {
	case hasParam:
		out.kind = kindParam
	case hasWildcard || raw:
		out.kind = kindWildcard
	default:
		out.kind = kindLiteral
	}

	if out.kind != kindLiteral {
		if _, err := regexp.Compile("^" + out.key + "$"); err != nil {
			return segment{}, patternError(pattern, seg, "%v", err)
		}
	}
	return out, nil
}

// compilePattern splits and compiles every segment of a pattern.
func (r *Router) compilePattern(pattern string) ([]segment, error) {
	parts, err := splitPattern(pattern, r.opts.delimiter)
	if err != nil {
		return nil, err
	}

	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg, err := r.compileSegment(pattern, part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// paramExpr returns the capture expression for a named parameter.
func (r *Router) paramExpr(name string) string {
	if custom, ok := r.params[name]; ok {
		return "(" + custom + ")"
	}
	return paramClass
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// isWildcardAt reports whether the * at seg[i] is a wildcard rather than
// an expression quantifier.
func isWildcardAt(seg string, i int) bool {
	if i == 0 {
		return true
	}
	p := seg[i-1]
	return isNameByte(p) || p == '-' || p == ' ' || p == '%' || p == '@' || p == '&' || p == '/'
}

// regexpCache caches compiled expressions by source.
type regexpCache struct {
	mu sync.RWMutex
	m  map[string]*regexp.Regexp
}

func newRegexpCache() *regexpCache {
	return &regexpCache{m: make(map[string]*regexp.Regexp)}
}

func (c *regexpCache) get(source string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.m[source]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.m[source] = re
	c.mu.Unlock()
	return re, nil
}

// len returns the number of cached expressions.
func (c *regexpCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
