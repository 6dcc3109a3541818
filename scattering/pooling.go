package scattering

import (
	"fmt"
	"strings"

	"github.com/scatseisnet/scatseisnet-go/algorithms/common"
)

// Reducer is the closed set of pooling reductions applied to the
// trailing time axis of a scalogram.
type Reducer int

const (
	// ReduceNone keeps the full time axis (raw scalogram).
	ReduceNone Reducer = iota
	// ReduceMax keeps the maximum over time.
	ReduceMax
	// ReduceAverage keeps the arithmetic mean over time.
	ReduceAverage
	// ReduceMedian keeps the median over time.
	ReduceMedian
)

func (r Reducer) String() string {
	switch r {
	case ReduceNone:
		return "none"
	case ReduceMax:
		return "max"
	case ReduceAverage:
		return "average"
	case ReduceMedian:
		return "median"
	default:
		return fmt.Sprintf("Reducer(%d)", int(r))
	}
}

func (r Reducer) valid() bool {
	return r >= ReduceNone && r <= ReduceMedian
}

// ParseReducer maps a reduction tag to its Reducer value. Recognized
// tags are "none" (or empty), "max", "avg"/"average"/"mean" and
// "med"/"median", case-insensitive. Unrecognized tags are rejected
// here, at configuration time, rather than during transforms.
func ParseReducer(s string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ReduceNone, nil
	case "max":
		return ReduceMax, nil
	case "avg", "average", "mean":
		return ReduceAverage, nil
	case "med", "median":
		return ReduceMedian, nil
	default:
		return ReduceNone, fmt.Errorf("scattering: unrecognized reduction %q (want none, max, average or median)", s)
	}
}

// reduce collapses one time series to its summary statistic. Only
// called for reducers other than ReduceNone.
func (r Reducer) reduce(row []float64) float64 {
	switch r {
	case ReduceMax:
		return common.Max(row)
	case ReduceAverage:
		return common.Mean(row)
	case ReduceMedian:
		return common.Median(row)
	default:
		return 0
	}
}

// Pool reduces the trailing time axis of an unpooled layer, returning a
// layer with the same path shape and no time axis. Pooling an already
// pooled layer or passing ReduceNone is an error; use the layer as-is
// in those cases.
func Pool(layer Layer, reducer Reducer) (Layer, error) {
	if !reducer.valid() || reducer == ReduceNone {
		return Layer{}, fmt.Errorf("scattering: pooling requires a reduction, got %s", reducer)
	}
	if layer.Bins == 0 {
		return Layer{}, fmt.Errorf("scattering: layer is already pooled")
	}
	if len(layer.Data) != layer.NumPaths()*layer.Bins {
		return Layer{}, fmt.Errorf("scattering: layer data length (%d) doesn't match shape", len(layer.Data))
	}

	pooled := Layer{
		Shape: append([]int(nil), layer.Shape...),
		Data:  make([]float64, layer.NumPaths()),
	}
	for p := range pooled.Data {
		pooled.Data[p] = reducer.reduce(layer.Data[p*layer.Bins : (p+1)*layer.Bins])
	}
	return pooled, nil
}
