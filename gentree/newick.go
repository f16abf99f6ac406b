// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gentree

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Parse reads a tree in newick
// (parenthetical)
// format,
// naming the tree with the indicated name.
//
// Node comments in the NHX format
// ("[&&NHX:D=Y]")
// are parsed into node annotations:
// the "D" key sets the duplication flag,
// any other key is stored in the Attr map.
// Other comments are ignored.
func Parse(r io.Reader, name string) (*Tree, error) {
	p := &parser{
		r: bufio.NewReader(r),
	}

	tk, err := p.next()
	if err != nil {
		return nil, fmt.Errorf("tree %q: pos %d: %v", name, p.pos, err)
	}
	if tk != '(' {
		return nil, fmt.Errorf("tree %q: pos %d: unexpected %q, expecting %q", name, p.pos, tk, '(')
	}

	root, err := p.node(nil)
	if err != nil {
		return nil, fmt.Errorf("tree %q: pos %d: %v", name, p.pos, err)
	}

	tk, err = p.next()
	if err != nil {
		return nil, fmt.Errorf("tree %q: pos %d: %v", name, p.pos, err)
	}
	if tk != ';' {
		return nil, fmt.Errorf("tree %q: pos %d: unexpected %q, expecting %q", name, p.pos, tk, ';')
	}

	return &Tree{
		name: name,
		root: root,
	}, nil
}

type parser struct {
	r   *bufio.Reader
	pos int
}

// Next returns the next significant rune in the stream.
func (p *parser) next() (rune, error) {
	for {
		r, _, err := p.r.ReadRune()
		if err != nil {
			return 0, err
		}
		p.pos++
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return r, nil
	}
}

func (p *parser) unread() {
	p.r.UnreadRune()
	p.pos--
}

// Node parses an internal node,
// called just after reading its opening parenthesis.
func (p *parser) node(parent *Node) (*Node, error) {
	n := &Node{
		Parent: parent,
	}

	for {
		tk, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tk {
		case '(':
			c, err := p.node(n)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
		case ',':
			continue
		case ')':
			if len(n.Children) == 0 {
				return nil, fmt.Errorf("empty node")
			}
			if err := p.decorate(n); err != nil {
				return nil, err
			}
			return n, nil
		default:
			p.unread()
			c, err := p.term(n)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
		}
	}
}

// Term parses a terminal node.
func (p *parser) term(parent *Node) (*Node, error) {
	n := &Node{
		Parent: parent,
	}
	if err := p.decorate(n); err != nil {
		return nil, err
	}
	if n.Name == "" {
		return nil, fmt.Errorf("terminal without name")
	}
	return n, nil
}

// Decorate reads the optional label,
// branch length,
// and comment of a node.
func (p *parser) decorate(n *Node) error {
	name, err := p.label()
	if err != nil {
		return err
	}
	n.Name = name

	tk, err := p.next()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if tk == ':' {
		l, err := p.length()
		if err != nil {
			return err
		}
		if l < 0 {
			return fmt.Errorf("negative branch length: %.6f", l)
		}
		n.Len = l

		tk, err = p.next()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	if tk == '[' {
		if err := p.comment(n); err != nil {
			return err
		}
		return nil
	}
	p.unread()
	return nil
}

func (p *parser) label() (string, error) {
	var b strings.Builder
	for {
		r, _, err := p.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		p.pos++
		if strings.ContainsRune("(),;:[", r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			p.unread()
			break
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

func (p *parser) length() (float64, error) {
	var b strings.Builder
	for {
		r, _, err := p.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		p.pos++
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E' {
			p.unread()
			break
		}
		b.WriteRune(r)
	}
	l, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid branch length %q", b.String())
	}
	return l, nil
}

// Comment reads a bracketed comment,
// called just after reading the opening bracket.
// NHX comments are parsed into node annotations.
func (p *parser) comment(n *Node) error {
	var b strings.Builder
	for {
		r, _, err := p.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		p.pos++
		if r == ']' {
			break
		}
		b.WriteRune(r)
	}

	c := b.String()
	if !strings.HasPrefix(c, "&&NHX") {
		return nil
	}
	for _, f := range strings.Split(c, ":")[1:] {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid NHX field %q", f)
		}
		if kv[0] == "D" {
			n.IsDup = kv[1] == "Y" || kv[1] == "T"
			continue
		}
		if n.Attr == nil {
			n.Attr = make(map[string]string)
		}
		n.Attr[kv[0]] = kv[1]
	}
	return nil
}

// Newick writes the tree in newick format,
// with a trailing newline.
// Labels,
// branch lengths,
// and node annotations are preserved,
// so a parse-mutate-write cycle does not lose data.
func (t *Tree) Newick(w io.Writer) error {
	bw := bufio.NewWriter(w)
	writeNode(bw, t.root, true)
	bw.WriteString(";\n")
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *Node, isRoot bool) {
	if !n.IsTerm() {
		w.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				w.WriteByte(',')
			}
			writeNode(w, c, false)
		}
		w.WriteByte(')')
	}
	w.WriteString(n.Name)
	if !isRoot {
		fmt.Fprintf(w, ":%g", n.Len)
	}
	writeComment(w, n)
}

func writeComment(w *bufio.Writer, n *Node) {
	if !n.IsDup && len(n.Attr) == 0 {
		return
	}
	w.WriteString("[&&NHX")
	if n.IsDup {
		w.WriteString(":D=Y")
	}
	keys := make([]string, 0, len(n.Attr))
	for k := range n.Attr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, ":%s=%s", k, n.Attr[k])
	}
	w.WriteByte(']')
}
