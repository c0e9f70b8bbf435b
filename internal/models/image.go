package models

import (
	"fmt"

	"github.com/Laura-lc/AllenSDK/internal/utils"
)

// Image is a 2D image with optional physical pixel spacing. Projection and
// segmentation images carry spacing and unit; stimulus template frames carry
// pixel data only.
type Image struct {
	Data    [][]float64 `json:"data"`
	Spacing []float64   `json:"spacing,omitempty"`
	Unit    string      `json:"unit,omitempty"`
}

// Rows returns the number of image rows.
func (im Image) Rows() int {
	return len(im.Data)
}

// Cols returns the number of image columns, 0 for an empty image.
func (im Image) Cols() int {
	if len(im.Data) == 0 {
		return 0
	}
	return len(im.Data[0])
}

// Binarized returns a copy of the image with every positive pixel set to 1.
// Used for the segmentation mask, whose raw ROI weights are not meaningful
// on their own.
func (im Image) Binarized() Image {
	out := Image{
		Data:    make([][]float64, len(im.Data)),
		Spacing: im.Spacing,
		Unit:    im.Unit,
	}
	for i, row := range im.Data {
		outRow := make([]float64, len(row))
		for j, v := range row {
			if v > 0 {
				outRow[j] = 1
			}
		}
		out.Data[i] = outRow
	}
	return out
}

// ImageFromObject builds an Image from its serialized mapping form
// ("data" 2D array, "spacing" array, "unit" string).
func ImageFromObject(m map[string]interface{}) (Image, error) {
	data, err := matrixFromValue(m["data"])
	if err != nil {
		return Image{}, fmt.Errorf("image data: %w", err)
	}
	return Image{
		Data:    data,
		Spacing: utils.GetFloat64Slice(m, "spacing"),
		Unit:    utils.GetString(m, "unit", ""),
	}, nil
}

// TemplatesFromObject builds the stimulus template sets from their serialized
// mapping form: image-set name to a stack of 2D frames.
func TemplatesFromObject(m map[string]interface{}) (map[string][]Image, error) {
	out := make(map[string][]Image, len(m))
	for name, raw := range m {
		frames, ok := raw.([]interface{})
		if !ok {
			if typed, ok := raw.([][][]float64); ok {
				stack := make([]Image, len(typed))
				for i, fr := range typed {
					stack[i] = Image{Data: fr}
				}
				out[name] = stack
				continue
			}
			return nil, fmt.Errorf("template set %q: expected an array of frames, got %T", name, raw)
		}
		stack := make([]Image, 0, len(frames))
		for i, frame := range frames {
			data, err := matrixFromValue(frame)
			if err != nil {
				return nil, fmt.Errorf("template set %q frame %d: %w", name, i, err)
			}
			stack = append(stack, Image{Data: data})
		}
		out[name] = stack
	}
	return out, nil
}

// matrixFromValue converts a decoded JSON 2D array into [][]float64.
func matrixFromValue(v interface{}) ([][]float64, error) {
	if typed, ok := v.([][]float64); ok {
		return typed, nil
	}
	rows, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a 2D array, got %T", v)
	}
	out := make([][]float64, 0, len(rows))
	for i, rawRow := range rows {
		var row []float64
		switch r := rawRow.(type) {
		case []float64:
			row = r
		case []interface{}:
			row = make([]float64, 0, len(r))
			for j, cell := range r {
				f, ok := utils.AsFloat64(cell)
				if !ok {
					return nil, fmt.Errorf("row %d col %d: expected a number, got %T", i, j, cell)
				}
				row = append(row, f)
			}
		default:
			return nil, fmt.Errorf("row %d: expected an array, got %T", i, rawRow)
		}
		out = append(out, row)
	}
	return out, nil
}
