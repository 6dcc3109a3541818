package scattering

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/scatseisnet/scatseisnet-go/logging"
)

// Layer holds the coefficients produced by one layer of the scattering
// network. Shape lists the scattering path axes in order (an optional
// leading batch or channel axis, then one filter axis per traversed
// layer). Bins is the length of the trailing time axis, or 0 when the
// layer was pooled. Data is stored row-major.
type Layer struct {
	Shape []int     `json:"shape"`
	Bins  int       `json:"bins"`
	Data  []float64 `json:"data"`
}

// NumPaths returns the number of scattering paths, i.e. the product of
// the path axes.
func (l Layer) NumPaths() int {
	paths := 1
	for _, n := range l.Shape {
		paths *= n
	}
	return paths
}

// ScatteringNetwork chains complex Morlet filter banks into a cascaded
// wavelet transform with pointwise modulus and optional time pooling.
// Every layer consumes the previous layer's unpooled scalogram, so the
// number of scattering paths grows multiplicatively with depth. The
// network is immutable once constructed and safe for concurrent
// transforms.
type ScatteringNetwork struct {
	cfg    NetworkConfig
	banks  []*ComplexMorletBank
	logger logging.Logger
}

// NewScatteringNetwork builds one filter bank per configured layer, all
// sharing the network's bins and sampling rate.
func NewScatteringNetwork(cfg NetworkConfig, opts ...Option) (*ScatteringNetwork, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts...)
	logger := o.logger.WithFields(logging.Fields{"component": "scattering_network"})

	banks := make([]*ComplexMorletBank, len(cfg.Layers))
	for i, layer := range cfg.Layers {
		bank, err := NewComplexMorletBank(layer.bankConfig(cfg.Bins, cfg.SamplingRate), opts...)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		banks[i] = bank
	}

	logger.Debug("scattering network created", logging.Fields{
		"depth":         len(banks),
		"bins":          cfg.Bins,
		"sampling_rate": cfg.SamplingRate,
	})

	return &ScatteringNetwork{cfg: cfg, banks: banks, logger: logger}, nil
}

// Depth returns the number of layers.
func (n *ScatteringNetwork) Depth() int {
	return len(n.banks)
}

// Bins returns the temporal support shared by all layers.
func (n *ScatteringNetwork) Bins() int {
	return n.cfg.Bins
}

// SamplingRate returns the sampling rate in Hertz.
func (n *ScatteringNetwork) SamplingRate() float64 {
	return n.cfg.SamplingRate
}

// Banks returns the per-layer filter banks, ordered by layer.
func (n *ScatteringNetwork) Banks() []*ComplexMorletBank {
	banks := make([]*ComplexMorletBank, len(n.banks))
	copy(banks, n.banks)
	return banks
}

// FilterCounts returns the number of filters per layer.
func (n *ScatteringNetwork) FilterCounts() []int {
	counts := make([]int, len(n.banks))
	for i, bank := range n.banks {
		counts[i] = bank.Size()
	}
	return counts
}

// TransformSegment computes the scattering coefficients of one
// single-channel segment. Layer l carries one coefficient per
// scattering path (k0, ..., kl), with the full time axis retained when
// reducer is ReduceNone.
func (n *ScatteringNetwork) TransformSegment(segment []float64, reducer Reducer) ([]Layer, error) {
	return n.cascade([][]float64{segment}, nil, reducer)
}

// TransformSegmentChannels computes the scattering coefficients of one
// multi-channel segment. Every layer keeps the leading channel axis.
func (n *ScatteringNetwork) TransformSegmentChannels(channels [][]float64, reducer Reducer) ([]Layer, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("scattering: segment has no channels")
	}
	return n.cascade(channels, []int{len(channels)}, reducer)
}

// cascade runs the layer-by-layer transform. Each row is one time
// series of Bins samples; baseShape describes the axes the rows span
// before the first filter axis (nil for a bare single-channel segment).
func (n *ScatteringNetwork) cascade(rows [][]float64, baseShape []int, reducer Reducer) ([]Layer, error) {
	if !reducer.valid() {
		return nil, fmt.Errorf("scattering: unrecognized reducer %s", reducer)
	}
	for _, row := range rows {
		if len(row) != n.cfg.Bins {
			return nil, fmt.Errorf("scattering: segment length (%d) doesn't match network bins (%d)", len(row), n.cfg.Bins)
		}
	}

	shape := append([]int(nil), baseShape...)
	layers := make([]Layer, 0, len(n.banks))

	for _, bank := range n.banks {
		next := make([][]float64, 0, len(rows)*bank.Size())
		for _, row := range rows {
			scalogram, err := bank.Transform(row)
			if err != nil {
				return nil, err
			}
			next = append(next, scalogram...)
		}

		shape = append(shape, bank.Size())
		layers = append(layers, newLayer(shape, next, reducer))

		// The unpooled scalogram feeds the next layer.
		rows = next
	}

	return layers, nil
}

// newLayer records one layer's coefficients, pooled over time unless
// reducer is ReduceNone.
func newLayer(shape []int, rows [][]float64, reducer Reducer) Layer {
	layer := Layer{Shape: append([]int(nil), shape...)}

	if reducer == ReduceNone {
		layer.Bins = len(rows[0])
		layer.Data = make([]float64, 0, len(rows)*layer.Bins)
		for _, row := range rows {
			layer.Data = append(layer.Data, row...)
		}
		return layer
	}

	layer.Data = make([]float64, len(rows))
	for p, row := range rows {
		layer.Data[p] = reducer.reduce(row)
	}
	return layer
}

// Transform computes the scattering coefficients of a batch of
// single-channel segments, processing segments in parallel. Layer l of
// the result stacks the per-segment layers along a new leading axis, in
// input order.
func (n *ScatteringNetwork) Transform(segments [][]float64, reducer Reducer) ([]Layer, error) {
	results, err := n.parallelTransform(len(segments), func(i int) ([]Layer, error) {
		return n.TransformSegment(segments[i], reducer)
	})
	if err != nil {
		return nil, err
	}
	return stackLayers(results), nil
}

// TransformChannels is the multi-channel counterpart of Transform: each
// segment is a channels-by-bins matrix and every output layer keeps the
// channel axis after the leading segment axis.
func (n *ScatteringNetwork) TransformChannels(segments [][][]float64, reducer Reducer) ([]Layer, error) {
	results, err := n.parallelTransform(len(segments), func(i int) ([]Layer, error) {
		return n.TransformSegmentChannels(segments[i], reducer)
	})
	if err != nil {
		return nil, err
	}
	return stackLayers(results), nil
}

// parallelTransform maps run over segment indices with a worker pool.
// Segments are independent; results land at their input index.
func (n *ScatteringNetwork) parallelTransform(count int, run func(i int) ([]Layer, error)) ([][]Layer, error) {
	if count == 0 {
		return nil, fmt.Errorf("scattering: no segments to transform")
	}

	results := make([][]Layer, count)
	errs := make([]error, count)
	jobs := make(chan int, count)

	var wg sync.WaitGroup
	for range workerCount(count) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = run(i)
			}
		}()
	}

	for i := range count {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}

	n.logger.Debug("batch transform complete", logging.Fields{
		"segments": count,
		"depth":    len(n.banks),
	})

	return results, nil
}

func workerCount(jobs int) int {
	workers := runtime.NumCPU()
	if workers > jobs {
		workers = jobs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// stackLayers joins per-segment layers along a new leading axis. All
// results come from the same network and reducer, so their shapes
// agree by construction.
func stackLayers(results [][]Layer) []Layer {
	depth := len(results[0])
	stacked := make([]Layer, depth)

	for l := range depth {
		first := results[0][l]
		layer := Layer{
			Shape: append([]int{len(results)}, first.Shape...),
			Bins:  first.Bins,
			Data:  make([]float64, 0, len(results)*len(first.Data)),
		}
		for _, result := range results {
			layer.Data = append(layer.Data, result[l].Data...)
		}
		stacked[l] = layer
	}

	return stacked
}
