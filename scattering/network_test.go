package scattering

import (
	"math"
	"reflect"
	"testing"
)

func testNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Bins:         128,
		SamplingRate: 100.0,
		Layers: []LayerConfig{
			{Octaves: 4, Resolution: 2, Quality: 4.0},
			{Octaves: 2, Resolution: 1, Quality: 4.0},
		},
	}
}

func testNetwork(t *testing.T) *ScatteringNetwork {
	t.Helper()
	network, err := NewScatteringNetwork(testNetworkConfig())
	if err != nil {
		t.Fatal(err)
	}
	return network
}

func TestNetworkConstruction(t *testing.T) {
	network := testNetwork(t)

	if network.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", network.Depth())
	}
	if network.Bins() != 128 {
		t.Errorf("Bins() = %d, want 128", network.Bins())
	}
	if network.SamplingRate() != 100.0 {
		t.Errorf("SamplingRate() = %g, want 100", network.SamplingRate())
	}
	if counts := network.FilterCounts(); !reflect.DeepEqual(counts, []int{8, 2}) {
		t.Errorf("FilterCounts() = %v, want [8 2]", counts)
	}
	if banks := network.Banks(); len(banks) != 2 {
		t.Errorf("Banks() length = %d, want 2", len(banks))
	}
}

func TestNetworkConstructionErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NetworkConfig)
	}{
		{"no layers", func(c *NetworkConfig) { c.Layers = nil }},
		{"zero bins", func(c *NetworkConfig) { c.Bins = 0 }},
		{"zero sampling rate", func(c *NetworkConfig) { c.SamplingRate = 0 }},
		{"bad layer octaves", func(c *NetworkConfig) { c.Layers[1].Octaves = 0 }},
		{"bad layer normalization", func(c *NetworkConfig) { c.Layers[0].Normalization = "max" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testNetworkConfig()
			tt.mutate(&cfg)
			if _, err := NewScatteringNetwork(cfg); err == nil {
				t.Errorf("expected construction error")
			}
		})
	}
}

func TestNetworkLayerDefaults(t *testing.T) {
	cfg := NetworkConfig{
		Bins:         128,
		SamplingRate: 100.0,
		Layers:       []LayerConfig{{Octaves: 4}},
	}

	network, err := NewScatteringNetwork(cfg)
	if err != nil {
		t.Fatal(err)
	}

	bank := network.Banks()[0]
	if bank.Size() != 4 {
		t.Errorf("Size() = %d, want 4 (resolution defaults to 1)", bank.Size())
	}
	if got := bank.Config().Quality; got != 4.0 {
		t.Errorf("Quality = %g, want default 4", got)
	}
}

func TestTransformSegmentPooled(t *testing.T) {
	network := testNetwork(t)
	segment := randomSegment(10, network.Bins())

	layers, err := network.TransformSegment(segment, ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}

	if len(layers) != 2 {
		t.Fatalf("layer count = %d, want 2", len(layers))
	}

	if !reflect.DeepEqual(layers[0].Shape, []int{8}) || layers[0].Bins != 0 || len(layers[0].Data) != 8 {
		t.Errorf("layer 0 = shape %v bins %d len %d, want shape [8] bins 0 len 8",
			layers[0].Shape, layers[0].Bins, len(layers[0].Data))
	}
	if !reflect.DeepEqual(layers[1].Shape, []int{8, 2}) || layers[1].Bins != 0 || len(layers[1].Data) != 16 {
		t.Errorf("layer 1 = shape %v bins %d len %d, want shape [8 2] bins 0 len 16",
			layers[1].Shape, layers[1].Bins, len(layers[1].Data))
	}
}

func TestTransformSegmentUnpooled(t *testing.T) {
	network := testNetwork(t)
	segment := randomSegment(11, network.Bins())

	layers, err := network.TransformSegment(segment, ReduceNone)
	if err != nil {
		t.Fatal(err)
	}

	wantShapes := [][]int{{8}, {8, 2}}
	for l, layer := range layers {
		if !reflect.DeepEqual(layer.Shape, wantShapes[l]) {
			t.Errorf("layer %d shape = %v, want %v", l, layer.Shape, wantShapes[l])
		}
		if layer.Bins != network.Bins() {
			t.Errorf("layer %d bins = %d, want %d", l, layer.Bins, network.Bins())
		}
		if len(layer.Data) != layer.NumPaths()*network.Bins() {
			t.Errorf("layer %d data length = %d, want %d", l, len(layer.Data), layer.NumPaths()*network.Bins())
		}
	}
}

func TestTransformSegmentChannels(t *testing.T) {
	network := testNetwork(t)
	channels := [][]float64{
		randomSegment(12, network.Bins()),
		randomSegment(13, network.Bins()),
		randomSegment(14, network.Bins()),
	}

	layers, err := network.TransformSegmentChannels(channels, ReduceMax)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(layers[0].Shape, []int{3, 8}) {
		t.Errorf("layer 0 shape = %v, want [3 8]", layers[0].Shape)
	}
	if !reflect.DeepEqual(layers[1].Shape, []int{3, 8, 2}) {
		t.Errorf("layer 1 shape = %v, want [3 8 2]", layers[1].Shape)
	}

	if _, err := network.TransformSegmentChannels(nil, ReduceMax); err == nil {
		t.Errorf("expected error for empty channel list")
	}
}

func TestTransformSegmentShapeError(t *testing.T) {
	network := testNetwork(t)

	if _, err := network.TransformSegment(make([]float64, 64), ReduceAverage); err == nil {
		t.Errorf("expected shape error for short segment")
	}
	if _, err := network.TransformSegment(make([]float64, 256), ReduceAverage); err == nil {
		t.Errorf("expected shape error for long segment")
	}
}

func TestTransformSegmentInvalidReducer(t *testing.T) {
	network := testNetwork(t)
	segment := randomSegment(15, network.Bins())

	if _, err := network.TransformSegment(segment, Reducer(42)); err == nil {
		t.Errorf("expected error for invalid reducer")
	}
}

func TestTransformSegmentDeterministic(t *testing.T) {
	network := testNetwork(t)
	segment := randomSegment(16, network.Bins())

	first, err := network.TransformSegment(segment, ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}
	second, err := network.TransformSegment(segment, ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated transforms differ")
	}
}

func TestTransformSegmentSensitivity(t *testing.T) {
	network := testNetwork(t)

	first, err := network.TransformSegment(randomSegment(17, network.Bins()), ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}
	second, err := network.TransformSegment(randomSegment(18, network.Bins()), ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}

	if reflect.DeepEqual(first[0].Data, second[0].Data) {
		t.Errorf("distinct segments produced identical coefficients")
	}
}

func TestTransformSegmentDegenerateInputs(t *testing.T) {
	network := testNetwork(t)

	zeros := make([]float64, network.Bins())
	ones := make([]float64, network.Bins())
	for i := range ones {
		ones[i] = 1
	}

	for name, segment := range map[string][]float64{"zero": zeros, "constant": ones} {
		t.Run(name, func(t *testing.T) {
			layers, err := network.TransformSegment(segment, ReduceMedian)
			if err != nil {
				t.Fatal(err)
			}

			for l, layer := range layers {
				for i, v := range layer.Data {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Fatalf("layer %d coefficient %d not finite: %g", l, i, v)
					}
				}
			}
		})
	}
}

func TestTransformBatch(t *testing.T) {
	network := testNetwork(t)

	segments := make([][]float64, 10)
	for i := range segments {
		segments[i] = randomSegment(int64(20+i), network.Bins())
	}

	layers, err := network.Transform(segments, ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(layers[0].Shape, []int{10, 8}) || len(layers[0].Data) != 80 {
		t.Errorf("layer 0 = shape %v len %d, want shape [10 8] len 80", layers[0].Shape, len(layers[0].Data))
	}
	if !reflect.DeepEqual(layers[1].Shape, []int{10, 8, 2}) || len(layers[1].Data) != 160 {
		t.Errorf("layer 1 = shape %v len %d, want shape [10 8 2] len 160", layers[1].Shape, len(layers[1].Data))
	}
}

func TestTransformBatchOrder(t *testing.T) {
	network := testNetwork(t)

	segments := make([][]float64, 6)
	for i := range segments {
		segments[i] = randomSegment(int64(30+i), network.Bins())
	}

	batch, err := network.Transform(segments, ReduceAverage)
	if err != nil {
		t.Fatal(err)
	}

	// Stacked rows must match independent per-segment transforms, in order.
	for i, segment := range segments {
		single, err := network.TransformSegment(segment, ReduceAverage)
		if err != nil {
			t.Fatal(err)
		}
		got := batch[0].Data[i*8 : (i+1)*8]
		if !reflect.DeepEqual(got, single[0].Data) {
			t.Errorf("segment %d: stacked row differs from single transform", i)
		}
	}
}

func TestTransformBatchErrors(t *testing.T) {
	network := testNetwork(t)

	if _, err := network.Transform(nil, ReduceAverage); err == nil {
		t.Errorf("expected error for empty batch")
	}

	segments := [][]float64{
		randomSegment(40, network.Bins()),
		make([]float64, 64), // wrong length
	}
	if _, err := network.Transform(segments, ReduceAverage); err == nil {
		t.Errorf("expected error for malformed segment in batch")
	}
}

func TestTransformChannelsBatch(t *testing.T) {
	network := testNetwork(t)

	segments := make([][][]float64, 4)
	for i := range segments {
		segments[i] = [][]float64{
			randomSegment(int64(50+2*i), network.Bins()),
			randomSegment(int64(51+2*i), network.Bins()),
		}
	}

	layers, err := network.TransformChannels(segments, ReduceMedian)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(layers[0].Shape, []int{4, 2, 8}) {
		t.Errorf("layer 0 shape = %v, want [4 2 8]", layers[0].Shape)
	}
	if !reflect.DeepEqual(layers[1].Shape, []int{4, 2, 8, 2}) {
		t.Errorf("layer 1 shape = %v, want [4 2 8 2]", layers[1].Shape)
	}
}

func TestLayerNumPaths(t *testing.T) {
	tests := []struct {
		shape []int
		want  int
	}{
		{nil, 1},
		{[]int{8}, 8},
		{[]int{10, 8, 2}, 160},
	}

	for _, tt := range tests {
		layer := Layer{Shape: tt.shape}
		if got := layer.NumPaths(); got != tt.want {
			t.Errorf("NumPaths(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}
