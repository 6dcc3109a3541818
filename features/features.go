// Package features prepares pooled scattering coefficients for
// downstream dimensionality reduction and clustering: flattening layer
// outputs into per-segment feature vectors, recovering per-layer arrays
// from such vectors, and normalizing higher-order coefficients by their
// parent paths.
package features

import (
	"fmt"
	"math"

	"github.com/scatseisnet/scatseisnet-go/scattering"
)

// parentEpsilon guards divisions by parent coefficients that pooled to
// zero (e.g. silent segments).
const parentEpsilon = 1e-5

// Vectorize flattens pooled batch layers into one feature vector per
// segment. Layers must come from a batch transform with a reduction:
// every layer carries the same leading segment axis and no time axis.
// The resulting matrix has one row per segment and one column per
// scattering path, layer 0 paths first.
func Vectorize(layers []scattering.Layer) ([][]float64, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("features: no layers to vectorize")
	}

	count := 0
	widths := make([]int, len(layers))
	for l, layer := range layers {
		if layer.Bins != 0 {
			return nil, fmt.Errorf("features: layer %d is unpooled, vectorization needs pooled coefficients", l)
		}
		if len(layer.Shape) < 2 {
			return nil, fmt.Errorf("features: layer %d has no batch axis", l)
		}
		if l == 0 {
			count = layer.Shape[0]
		} else if layer.Shape[0] != count {
			return nil, fmt.Errorf("features: layer %d batch size (%d) doesn't match layer 0 (%d)", l, layer.Shape[0], count)
		}
		widths[l] = layer.NumPaths() / count
	}

	total := 0
	for _, w := range widths {
		total += w
	}

	vectors := make([][]float64, count)
	for s := range count {
		vector := make([]float64, 0, total)
		for l, layer := range layers {
			vector = append(vector, layer.Data[s*widths[l]:(s+1)*widths[l]]...)
		}
		vectors[s] = vector
	}
	return vectors, nil
}

// Reshape splits one segment's feature vector back into per-layer
// pooled layers, given the network's filter counts per layer (see
// ScatteringNetwork.FilterCounts). It is the inverse of Vectorize for a
// single row.
func Reshape(vector []float64, filterCounts []int) ([]scattering.Layer, error) {
	if len(filterCounts) == 0 {
		return nil, fmt.Errorf("features: no filter counts given")
	}

	total := 0
	paths := 1
	for _, k := range filterCounts {
		if k <= 0 {
			return nil, fmt.Errorf("features: filter counts must be positive, got %d", k)
		}
		paths *= k
		total += paths
	}
	if len(vector) != total {
		return nil, fmt.Errorf("features: vector length (%d) doesn't match filter counts (want %d)", len(vector), total)
	}

	layers := make([]scattering.Layer, len(filterCounts))
	shape := make([]int, 0, len(filterCounts))
	start := 0
	for l, k := range filterCounts {
		shape = append(shape, k)
		layer := scattering.Layer{
			Shape: append([]int(nil), shape...),
		}
		width := layer.NumPaths()
		layer.Data = append([]float64(nil), vector[start:start+width]...)
		layers[l] = layer
		start += width
	}
	return layers, nil
}

// NormalizeHigherOrder rescales pooled coefficients in place so that
// higher orders describe relative rather than absolute energy: every
// order-(l+1) coefficient is divided by its parent order-l coefficient,
// then each trailing-filter column is divided by the square root of its
// sum within the leading axis slice. Layers must be pooled and share
// their leading (batch or channel) axis.
func NormalizeHigherOrder(layers []scattering.Layer) error {
	if len(layers) < 2 {
		return nil
	}

	for l := 0; l < len(layers)-1; l++ {
		parent := layers[l]
		child := layers[l+1]

		if parent.Bins != 0 || child.Bins != 0 {
			return fmt.Errorf("features: normalization needs pooled coefficients")
		}
		if len(parent.Shape) < 2 || len(child.Shape) != len(parent.Shape)+1 {
			return fmt.Errorf("features: layer %d shape doesn't extend layer %d by one filter axis", l+1, l)
		}
		lead := parent.Shape[0]
		if child.Shape[0] != lead {
			return fmt.Errorf("features: layer %d leading axis (%d) doesn't match layer %d (%d)", l+1, child.Shape[0], l, lead)
		}

		parents := parent.NumPaths() / lead
		childK := child.Shape[len(child.Shape)-1]

		for s := range lead {
			parentData := parent.Data[s*parents : (s+1)*parents]
			childData := child.Data[s*parents*childK : (s+1)*parents*childK]

			for p := range parents {
				scale := parentData[p] + parentEpsilon
				for j := range childK {
					childData[p*childK+j] /= scale
				}
			}

			for j := range childK {
				sum := 0.0
				for p := range parents {
					sum += childData[p*childK+j]
				}
				norm := math.Sqrt(sum)
				if norm < parentEpsilon {
					continue
				}
				for p := range parents {
					childData[p*childK+j] /= norm
				}
			}
		}
	}
	return nil
}
