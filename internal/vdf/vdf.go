// Package vdf reads and writes Steam's binary KeyValues format, the encoding
// used by userdata/<id>/config/shortcuts.vdf.
//
// A document is a sequence of typed nodes terminated by an end marker. Maps
// nest further node sequences. The decoder keeps node order, key spelling and
// value types so that Encode(Decode(b)) reproduces b for any well-formed input
// that uses the canonical end marker.
package vdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/grovetools/moonsync/errors"
)

// Type is the tag byte that precedes every node.
type Type byte

const (
	TypeMap        Type = 0x00
	TypeString     Type = 0x01
	TypeInt32      Type = 0x02
	TypeFloat32    Type = 0x03
	TypePointer    Type = 0x04
	TypeWideString Type = 0x05
	TypeColor      Type = 0x06
	TypeUint64     Type = 0x07
	TypeEnd        Type = 0x08
	TypeInt64      Type = 0x0A
	TypeEndAlt     Type = 0x0B
)

const maxDepth = 64

// Node is a single keyed value. Only the field matching Type is meaningful:
// Children for maps, Value for strings, Bits for every numeric type.
type Node struct {
	Type     Type
	Key      string
	Value    string
	Bits     uint64
	Children []*Node

	// Offset is the position of the node's type byte in the decoded input.
	Offset int
}

// NewMap creates a map node.
func NewMap(key string, children ...*Node) *Node {
	return &Node{Type: TypeMap, Key: key, Children: children}
}

// NewString creates a string node.
func NewString(key, value string) *Node {
	return &Node{Type: TypeString, Key: key, Value: value}
}

// NewInt32 creates a 32-bit integer node.
func NewInt32(key string, value uint32) *Node {
	return &Node{Type: TypeInt32, Key: key, Bits: uint64(value)}
}

// Uint32 returns the low 32 bits of a numeric node.
func (n *Node) Uint32() uint32 {
	return uint32(n.Bits)
}

// Child returns the first direct child whose key matches, ignoring case.
// Steam has written both "AppName" and "appname" over the years.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if strings.EqualFold(c.Key, key) {
			return c
		}
	}
	return nil
}

// IndexOf returns the position of the first child matching key, or -1.
func (n *Node) IndexOf(key string) int {
	for i, c := range n.Children {
		if strings.EqualFold(c.Key, key) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := *n
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

func payloadSize(t Type) int {
	switch t {
	case TypeInt32, TypeFloat32, TypePointer, TypeColor:
		return 4
	case TypeUint64, TypeInt64:
		return 8
	}
	return 0
}

// Decode parses a complete binary KeyValues document.
func Decode(data []byte) ([]*Node, error) {
	d := &decoder{data: data}
	nodes, err := d.readNodes(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, errors.FormatError(d.pos, fmt.Sprintf("%d trailing bytes after document end", len(d.data)-d.pos))
	}
	return nodes, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readNodes(depth int) ([]*Node, error) {
	if depth > maxDepth {
		return nil, errors.FormatError(d.pos, "maps nested too deeply")
	}

	var nodes []*Node
	for {
		if d.pos >= len(d.data) {
			return nil, errors.FormatError(d.pos, "unexpected end of data, missing end marker")
		}
		offset := d.pos
		t := Type(d.data[d.pos])
		d.pos++

		if t == TypeEnd || t == TypeEndAlt {
			return nodes, nil
		}

		key, err := d.readCString()
		if err != nil {
			return nil, err
		}
		n := &Node{Type: t, Key: key, Offset: offset}

		switch t {
		case TypeMap:
			children, err := d.readNodes(depth + 1)
			if err != nil {
				return nil, err
			}
			n.Children = children
		case TypeString:
			if n.Value, err = d.readCString(); err != nil {
				return nil, err
			}
		case TypeInt32, TypeFloat32, TypePointer, TypeColor, TypeUint64, TypeInt64:
			size := payloadSize(t)
			if d.pos+size > len(d.data) {
				return nil, errors.FormatError(d.pos, fmt.Sprintf("truncated value for key %q", key))
			}
			if size == 4 {
				n.Bits = uint64(binary.LittleEndian.Uint32(d.data[d.pos:]))
			} else {
				n.Bits = binary.LittleEndian.Uint64(d.data[d.pos:])
			}
			d.pos += size
		default:
			return nil, errors.FormatError(offset, fmt.Sprintf("unsupported value type 0x%02x for key %q", byte(t), key))
		}

		nodes = append(nodes, n)
	}
}

func (d *decoder) readCString() (string, error) {
	end := bytes.IndexByte(d.data[d.pos:], 0)
	if end < 0 {
		return "", errors.FormatError(d.pos, "unterminated string")
	}
	s := string(d.data[d.pos : d.pos+end])
	d.pos += end + 1
	return s, nil
}

// Encode serializes nodes as a complete document, including the trailing end marker.
func Encode(nodes []*Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNodes(&buf, nodes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNodes(buf *bytes.Buffer, nodes []*Node) error {
	for _, n := range nodes {
		if err := writeNode(buf, n); err != nil {
			return err
		}
	}
	buf.WriteByte(byte(TypeEnd))
	return nil
}

func writeNode(buf *bytes.Buffer, n *Node) error {
	if err := writeCString(buf, n.Key, n.Type); err != nil {
		return err
	}

	switch n.Type {
	case TypeMap:
		return writeNodes(buf, n.Children)
	case TypeString:
		if strings.IndexByte(n.Value, 0) >= 0 {
			return errors.New(errors.ErrCodeIO, fmt.Sprintf("value of %q contains a NUL byte and cannot be stored", n.Key))
		}
		buf.WriteString(n.Value)
		buf.WriteByte(0)
	case TypeInt32, TypeFloat32, TypePointer, TypeColor:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n.Bits))
		buf.Write(b[:])
	case TypeUint64, TypeInt64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n.Bits)
		buf.Write(b[:])
	default:
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("cannot encode value type 0x%02x for key %q", byte(n.Type), n.Key))
	}
	return nil
}

func writeCString(buf *bytes.Buffer, key string, t Type) error {
	if strings.IndexByte(key, 0) >= 0 {
		return errors.New(errors.ErrCodeIO, fmt.Sprintf("key %q contains a NUL byte and cannot be stored", key))
	}
	buf.WriteByte(byte(t))
	buf.WriteString(key)
	buf.WriteByte(0)
	return nil
}
