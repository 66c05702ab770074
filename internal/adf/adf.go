// Package adf decodes the tracker's rich-text documents (Atlassian Document
// Format) into a small typed tree and flattens it into plain text.
//
// 지원 노드:
//
//	doc, paragraph, heading, bulletList, ... -> Block
//	text                                     -> Text
//	hardBreak                                -> HardBreak
//	mention, emoji, inlineCard               -> Inline (attrs.text / attrs.shortName / attrs.url)
//
// 알 수 없는 타입은 자식을 가진 Block 으로 취급합니다.
package adf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	NoDescription = "No description available"
	NoComments    = "No comments available"
)

var (
	ErrMissing   = errors.New("adf: document missing")
	ErrMalformed = errors.New("adf: malformed document")
)

// Node is one of Block, Text, HardBreak or Inline.
type Node interface {
	node()
}

type Block struct {
	Type    string
	Content []Node
}

type Text struct {
	Text string
}

type HardBreak struct{}

// Inline covers atom nodes that render as a short label.
type Inline struct {
	Type  string
	Label string
}

func (Block) node()     {}
func (Text) node()      {}
func (HardBreak) node() {}
func (Inline) node()    {}

type rawNode struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content json.RawMessage `json:"content"`
	Attrs   map[string]any  `json:"attrs"`
}

// Decode parses a document root. The root must be an object carrying a
// content array; anything else is ErrMalformed, and null/empty input is
// ErrMissing.
func Decode(raw json.RawMessage) (Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrMissing
	}
	var root rawNode
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: root has no content", ErrMalformed)
	}
	return decodeNode(root)
}

func decodeNode(r rawNode) (Node, error) {
	switch r.Type {
	case "text":
		return Text{Text: r.Text}, nil
	case "hardBreak":
		return HardBreak{}, nil
	case "mention", "emoji", "inlineCard", "status", "date":
		return Inline{Type: r.Type, Label: attrLabel(r.Attrs)}, nil
	}

	block := Block{Type: r.Type}
	if len(r.Content) == 0 || bytes.Equal(bytes.TrimSpace(r.Content), []byte("null")) {
		return block, nil
	}
	var children []rawNode
	if err := json.Unmarshal(r.Content, &children); err != nil {
		return nil, fmt.Errorf("%w: %s content: %v", ErrMalformed, r.Type, err)
	}
	block.Content = make([]Node, 0, len(children))
	for _, child := range children {
		n, err := decodeNode(child)
		if err != nil {
			return nil, err
		}
		block.Content = append(block.Content, n)
	}
	return block, nil
}

func attrLabel(attrs map[string]any) string {
	for _, key := range []string{"text", "shortName", "url"} {
		if v, ok := attrs[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Walk visits n depth-first. enter is called for every node; leave is
// called after a Block's children.
func Walk(n Node, enter func(Node), leave func(Block)) {
	enter(n)
	if b, ok := n.(Block); ok {
		for _, child := range b.Content {
			Walk(child, enter, leave)
		}
		if leave != nil {
			leave(b)
		}
	}
}

// PlainText concatenates leaf text. Inline leaves are joined as-is, block
// boundaries and hard breaks become a single space.
func PlainText(n Node) string {
	var sb strings.Builder
	Walk(n, func(n Node) {
		switch v := n.(type) {
		case Text:
			sb.WriteString(v.Text)
		case Inline:
			sb.WriteString(v.Label)
		case HardBreak:
			sb.WriteByte(' ')
		}
	}, func(Block) {
		sb.WriteByte(' ')
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Description returns the plain text of a ticket description, falling back
// to NoDescription when the field is absent or malformed. Plain string
// descriptions (REST v2) are passed through.
func Description(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if text := strings.Join(strings.Fields(s), " "); text != "" {
			return text
		}
		return NoDescription
	}
	doc, err := Decode(raw)
	if err != nil {
		return NoDescription
	}
	if text := PlainText(doc); text != "" {
		return text
	}
	return NoDescription
}

// CommentText extracts a comment body; malformed bodies yield "".
func CommentText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := Decode(raw)
	if err != nil {
		return ""
	}
	return PlainText(doc)
}
