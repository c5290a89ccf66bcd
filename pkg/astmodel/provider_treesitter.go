// Copyright 2026 The cosmwasm-guard Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package astmodel

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// TreeSitterProvider parses CosmWasm contract source using Tree-sitter's Rust
// grammar.
//
// Rust's grammar is large and a *sitter.Parser is not safe for concurrent
// use: the underlying C library pins the tree it produces into a
// process-local table of byte offsets that assumes single-threaded access
// to both the parser and the trees it has produced. Analysis elsewhere in
// this module (see pkg/detect's §5 concurrency note) depends on that
// constraint holding, so TreeSitterProvider pools parser instances per
// goroutine-confined caller rather than sharing one across a worker pool;
// callers that do want concurrency must re-parse per worker instead of
// sharing a *Node tree.
type TreeSitterProvider struct {
	pool sync.Pool
	once sync.Once
}

// NewTreeSitterProvider constructs a Rust-grammar AST provider.
func NewTreeSitterProvider() *TreeSitterProvider {
	return &TreeSitterProvider{}
}

func (p *TreeSitterProvider) initPool() {
	p.once.Do(func() {
		p.pool.New = func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(rust.GetLanguage())
			return parser
		}
	})
}

// Parse implements Provider.
func (p *TreeSitterProvider) Parse(fileID int, path string, contents []byte) (*Node, error) {
	p.initPool()

	parserObj := p.pool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("astmodel: invalid parser type from pool")
	}
	defer p.pool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, contents)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("tree-sitter parse: %v", err)}
	}
	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Msg: "tree-sitter produced no root node"}
	}
	if root.HasError() {
		if errNode := firstErrorNode(root); errNode != nil {
			pt := errNode.StartPoint()
			return nil, &ParseError{
				Path: path,
				Line: int(pt.Row) + 1,
				Col:  int(pt.Column) + 1,
				Msg:  "syntax error",
			}
		}
	}

	return normalize(root, fileID, contents), nil
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// normalize walks a *sitter.Node tree and produces our opaque-handle-free
// Node tree, resolving every span to (file, byte range, line, col) up front
// per the "spans as external handles" rule.
func normalize(n *sitter.Node, fileID int, src []byte) *Node {
	start := n.StartPoint()
	end := n.EndPoint()

	out := &Node{
		Kind: n.Type(),
		Span: Span{
			FileID:    fileID,
			StartByte: int(n.StartByte()),
			EndByte:   int(n.EndByte()),
			Start:     Position{Line: int(start.Row) + 1, Col: int(start.Column) + 1},
			End:       Position{Line: int(end.Row) + 1, Col: int(end.Column) + 1},
		},
	}
	out.Text = n.Content(src)

	count := int(n.ChildCount())
	if count > 0 {
		out.Children = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			field := n.FieldNameForChild(i)
			cn := normalize(child, fileID, src)
			cn.FieldName = field
			out.Children = append(out.Children, cn)
		}
	}
	return out
}
