// Package operators implements the ONNX operators a converted
// recognition model executes with.
package operators

import "github.com/ftnfurina/ocrkit/internal/tensor"

// Node mirrors the fields of an ONNX graph node that handlers need.
// It is a local type so this package does not import the onnx package.
type Node struct {
	Name       string
	OpType     string
	Domain     string
	Inputs     []string
	Outputs    []string
	Attributes []Attribute
}

// Attribute is one node attribute.
type Attribute struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	Tensor  *tensor.RawTensor
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

func (n *Node) attr(name string) *Attribute {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			return &n.Attributes[i]
		}
	}
	return nil
}

// AttrInt returns an int attribute or the default.
func (n *Node) AttrInt(name string, def int64) int64 {
	if a := n.attr(name); a != nil {
		return a.I
	}
	return def
}

// AttrInts returns an int-array attribute, or nil when absent.
func (n *Node) AttrInts(name string) []int64 {
	if a := n.attr(name); a != nil {
		return a.Ints
	}
	return nil
}

// AttrFloat returns a float attribute or the default.
func (n *Node) AttrFloat(name string, def float32) float32 {
	if a := n.attr(name); a != nil {
		return a.F
	}
	return def
}

// AttrString returns a string attribute or the default.
func (n *Node) AttrString(name, def string) string {
	if a := n.attr(name); a != nil {
		return string(a.S)
	}
	return def
}

// AttrTensor returns a tensor attribute, or nil when absent.
func (n *Node) AttrTensor(name string) *tensor.RawTensor {
	if a := n.attr(name); a != nil {
		return a.Tensor
	}
	return nil
}

// intsOrDefault widens an attribute int slice to plain ints, filling
// with def when the attribute is missing.
func intsOrDefault(vals []int64, count int, def int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = def
	}
	for i := 0; i < len(vals) && i < count; i++ {
		out[i] = int(vals[i])
	}
	return out
}
