package onnx

import (
	"encoding/binary"
	"math"
	"testing"
)

// pb builds protobuf wire bytes by hand so the tests do not depend on
// a protobuf library or on checked-in model files.
type pb struct {
	buf []byte
}

func (b *pb) varint(v uint64) *pb {
	for v >= 0x80 {
		b.buf = append(b.buf, byte(v)|0x80)
		v >>= 7
	}
	b.buf = append(b.buf, byte(v))
	return b
}

func (b *pb) tag(field int, wire int) *pb {
	return b.varint(uint64(field)<<3 | uint64(wire))
}

func (b *pb) int64Field(field int, v int64) *pb {
	return b.tag(field, 0).varint(uint64(v))
}

func (b *pb) stringField(field int, s string) *pb {
	return b.bytesField(field, []byte(s))
}

func (b *pb) bytesField(field int, data []byte) *pb {
	b.tag(field, 2).varint(uint64(len(data)))
	b.buf = append(b.buf, data...)
	return b
}

func (b *pb) msgField(field int, msg *pb) *pb {
	return b.bytesField(field, msg.buf)
}

func (b *pb) floatField(field int, v float32) *pb {
	b.tag(field, 5)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, math.Float32bits(v))
	return b
}

func (b *pb) packedInt64Field(field int, vals []int64) *pb {
	var payload pb
	for _, v := range vals {
		payload.varint(uint64(v))
	}
	return b.bytesField(field, payload.buf)
}

func rawFloats(vals []float32) []byte {
	out := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// buildValueInfo encodes a ValueInfoProto with a float tensor type.
func buildValueInfo(name string, dims ...int64) *pb {
	shape := &pb{}
	for _, d := range dims {
		dim := &pb{}
		if d < 0 {
			dim.stringField(2, "batch")
		} else {
			dim.int64Field(1, d)
		}
		shape.msgField(1, dim)
	}
	tensorType := (&pb{}).int64Field(1, TensorProtoFloat).msgField(2, shape)
	typeProto := (&pb{}).msgField(1, tensorType)
	return (&pb{}).stringField(1, name).msgField(2, typeProto)
}

// buildNode encodes a NodeProto.
func buildNode(opType, name string, inputs, outputs []string, attrs ...*pb) *pb {
	node := &pb{}
	for _, in := range inputs {
		node.stringField(1, in)
	}
	for _, out := range outputs {
		node.stringField(2, out)
	}
	node.stringField(3, name)
	node.stringField(4, opType)
	for _, a := range attrs {
		node.msgField(5, a)
	}
	return node
}

func intAttr(name string, v int64) *pb {
	return (&pb{}).stringField(1, name).int64Field(3, v).int64Field(20, AttributeProtoInt)
}

func intsAttr(name string, vals []int64) *pb {
	a := (&pb{}).stringField(1, name)
	for _, v := range vals {
		a.int64Field(8, v)
	}
	return a.int64Field(20, AttributeProtoInts)
}

func floatAttr(name string, v float32) *pb {
	return (&pb{}).stringField(1, name).floatField(2, v).int64Field(20, AttributeProtoFloat)
}

// buildInitializer encodes a float TensorProto using raw_data.
func buildInitializer(name string, dims []int64, vals []float32) *pb {
	t := (&pb{}).packedInt64Field(1, dims).int64Field(2, TensorProtoFloat)
	t.stringField(8, name)
	return t.bytesField(9, rawFloats(vals))
}

// buildModel wraps a graph with IR version, producer, and opset.
func buildModel(graph *pb) []byte {
	model := (&pb{}).int64Field(1, 8)
	model.stringField(2, "ocrkit-test")
	model.stringField(3, "0.1")
	model.msgField(7, graph)
	opset := (&pb{}).stringField(1, "").int64Field(2, 13)
	model.msgField(8, opset)
	return model.buf
}

// reluModel is a single-node graph: Y = Relu(X), X float[1,4].
func reluModel() []byte {
	graph := (&pb{}).stringField(2, "relu_graph")
	graph.msgField(1, buildNode("Relu", "relu0", []string{"X"}, []string{"Y"}))
	graph.msgField(11, buildValueInfo("X", 1, 4))
	graph.msgField(12, buildValueInfo("Y", 1, 4))
	return buildModel(graph)
}

func TestParseModelHeader(t *testing.T) {
	model, err := Parse(reluModel())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if model.IRVersion != 8 {
		t.Errorf("IRVersion = %d, want 8", model.IRVersion)
	}
	if model.ProducerName != "ocrkit-test" {
		t.Errorf("ProducerName = %q, want ocrkit-test", model.ProducerName)
	}
	if len(model.OpsetImport) != 1 || model.OpsetImport[0].Version != 13 {
		t.Errorf("OpsetImport = %+v, want one entry at version 13", model.OpsetImport)
	}
}

func TestParseGraph(t *testing.T) {
	model, err := Parse(reluModel())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	g := model.Graph
	if g == nil {
		t.Fatal("Graph is nil")
	}
	if g.Name != "relu_graph" {
		t.Errorf("Graph.Name = %q, want relu_graph", g.Name)
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(g.Nodes))
	}
	node := g.Nodes[0]
	if node.OpType != "Relu" {
		t.Errorf("OpType = %q, want Relu", node.OpType)
	}
	if len(node.Inputs) != 1 || node.Inputs[0] != "X" {
		t.Errorf("Inputs = %v, want [X]", node.Inputs)
	}
	if len(node.Outputs) != 1 || node.Outputs[0] != "Y" {
		t.Errorf("Outputs = %v, want [Y]", node.Outputs)
	}
}

func TestParseValueInfoShape(t *testing.T) {
	graph := (&pb{}).stringField(2, "shapes")
	graph.msgField(11, buildValueInfo("x", -1, 3, 48, -1))
	model, err := Parse(buildModel(graph))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	inputs := model.Graph.Inputs
	if len(inputs) != 1 {
		t.Fatalf("len(Inputs) = %d, want 1", len(inputs))
	}
	dims := inputs[0].Type.TensorType.Shape.Dims
	if len(dims) != 4 {
		t.Fatalf("len(Dims) = %d, want 4", len(dims))
	}
	if dims[0].DimParam != "batch" {
		t.Errorf("Dims[0].DimParam = %q, want batch", dims[0].DimParam)
	}
	if dims[1].DimValue != 3 || dims[2].DimValue != 48 {
		t.Errorf("fixed dims = %d, %d, want 3, 48", dims[1].DimValue, dims[2].DimValue)
	}
}

func TestParseInitializer(t *testing.T) {
	graph := (&pb{}).stringField(2, "weights")
	graph.msgField(5, buildInitializer("w", []int64{2, 2}, []float32{1, 2, 3, 4}))
	model, err := Parse(buildModel(graph))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	inits := model.Graph.Initializers
	if len(inits) != 1 {
		t.Fatalf("len(Initializers) = %d, want 1", len(inits))
	}
	w := inits[0]
	if w.Name != "w" {
		t.Errorf("Name = %q, want w", w.Name)
	}
	if len(w.Dims) != 2 || w.Dims[0] != 2 || w.Dims[1] != 2 {
		t.Errorf("Dims = %v, want [2 2]", w.Dims)
	}
	if len(w.RawData) != 16 {
		t.Errorf("len(RawData) = %d, want 16", len(w.RawData))
	}
}

func TestParseAttributes(t *testing.T) {
	node := buildNode("Conv", "conv0", []string{"x", "w"}, []string{"y"},
		intsAttr("strides", []int64{2, 2}),
		intAttr("group", 4),
		floatAttr("alpha", 0.5),
	)
	graph := (&pb{}).stringField(2, "attrs").msgField(1, node)
	model, err := Parse(buildModel(graph))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	attrs := model.Graph.Nodes[0].Attributes
	if len(attrs) != 3 {
		t.Fatalf("len(Attributes) = %d, want 3", len(attrs))
	}
	byName := map[string]AttributeProto{}
	for _, a := range attrs {
		byName[a.Name] = a
	}
	if got := byName["strides"].Ints; len(got) != 2 || got[0] != 2 {
		t.Errorf("strides = %v, want [2 2]", got)
	}
	if byName["group"].I != 4 {
		t.Errorf("group = %d, want 4", byName["group"].I)
	}
	if byName["alpha"].F != 0.5 {
		t.Errorf("alpha = %v, want 0.5", byName["alpha"].F)
	}
}

func TestParseUnpackedFloats(t *testing.T) {
	// Repeated floats may be written one tagged fixed32 element at a
	// time instead of a single packed payload.
	attr := (&pb{}).stringField(1, "scales")
	attr.floatField(7, 1.5)
	attr.floatField(7, 2.5)
	attr.int64Field(20, AttributeProtoFloats)
	node := buildNode("Resize", "resize0", []string{"x"}, []string{"y"}, attr)

	init := (&pb{}).packedInt64Field(1, []int64{2}).int64Field(2, TensorProtoFloat)
	init.stringField(8, "w")
	init.floatField(4, 3.0)
	init.floatField(4, 4.0)

	graph := (&pb{}).stringField(2, "unpacked").msgField(1, node).msgField(5, init)
	model, err := Parse(buildModel(graph))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := model.Graph.Nodes[0].Attributes[0].Floats
	if len(got) != 2 || got[0] != 1.5 || got[1] != 2.5 {
		t.Errorf("Floats = %v, want [1.5 2.5]", got)
	}
	data := model.Graph.Initializers[0].FloatData
	if len(data) != 2 || data[0] != 3.0 || data[1] != 4.0 {
		t.Errorf("FloatData = %v, want [3 4]", data)
	}
}

func TestParseTruncated(t *testing.T) {
	data := reluModel()
	if _, err := Parse(data[:len(data)/2]); err == nil {
		t.Error("Parse of truncated model should fail")
	}
}

func TestParseEmpty(t *testing.T) {
	model, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse of empty input failed: %v", err)
	}
	if model.Graph != nil {
		t.Error("empty model should have no graph")
	}
}
