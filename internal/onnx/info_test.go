package onnx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadInfo(t *testing.T) {
	graph := (&pb{}).stringField(2, "rec_graph")
	graph.msgField(1, buildNode("Conv", "conv0", []string{"x", "w"}, []string{"c0"}))
	graph.msgField(1, buildNode("Conv", "conv1", []string{"c0", "w2"}, []string{"c1"}))
	graph.msgField(1, buildNode("HardSwish", "act0", []string{"c1"}, []string{"y"}))
	graph.msgField(5, buildInitializer("w", []int64{8, 3, 3, 3}, make([]float32, 8*3*3*3)))
	graph.msgField(5, buildInitializer("w2", []int64{8, 8, 3, 3}, make([]float32, 8*8*3*3)))
	graph.msgField(11, buildValueInfo("x", -1, 3, 48, -1))
	graph.msgField(11, buildValueInfo("w", 8, 3, 3, 3))
	graph.msgField(12, buildValueInfo("y", -1, 8, 48, -1))

	path := filepath.Join(t.TempDir(), "rec.onnx")
	if err := os.WriteFile(path, buildModel(graph), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}
	if info.IRVersion != 8 || info.OpsetVersion != 13 {
		t.Errorf("versions = ir %d opset %d, want ir 8 opset 13", info.IRVersion, info.OpsetVersion)
	}
	if info.GraphName != "rec_graph" {
		t.Errorf("GraphName = %q, want rec_graph", info.GraphName)
	}
	if info.NodeCount != 3 || info.WeightCount != 2 {
		t.Errorf("counts = %d nodes %d weights, want 3 and 2", info.NodeCount, info.WeightCount)
	}

	// w is an initializer, so x is the only model input.
	if len(info.Inputs) != 1 || info.Inputs[0].Name != "x" {
		t.Fatalf("Inputs = %+v, want just x", info.Inputs)
	}
	in := info.Inputs[0]
	if len(in.Dims) != 4 || in.Dims[0] != -1 || in.Dims[2] != 48 {
		t.Errorf("input dims = %v, want [-1 3 48 -1]", in.Dims)
	}
	if in.Syms[0] != "batch" {
		t.Errorf("input sym dim = %q, want batch", in.Syms[0])
	}

	// Histogram sorted by count descending.
	if len(info.Ops) != 2 {
		t.Fatalf("Ops = %+v, want 2 entries", info.Ops)
	}
	if info.Ops[0].OpType != "Conv" || info.Ops[0].Count != 2 {
		t.Errorf("Ops[0] = %+v, want Conv x2", info.Ops[0])
	}
	if info.Ops[1].OpType != "HardSwish" || info.Ops[1].Count != 1 {
		t.Errorf("Ops[1] = %+v, want HardSwish x1", info.Ops[1])
	}
}

func TestReadInfoMissingFile(t *testing.T) {
	if _, err := ReadInfo(filepath.Join(t.TempDir(), "missing.onnx")); err == nil {
		t.Error("ReadInfo of missing file should fail")
	}
}
