package legend

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vitebski/relgraph/pkg/models"
)

// ErrIndexOutOfRange is returned by list edits that address a missing slot.
var ErrIndexOutOfRange = errors.New("index out of range")

// NewItem builds a legend item with a fresh id.
func NewItem(label, color string) models.LegendItem {
	return models.LegendItem{
		ID:    uuid.NewString(),
		Label: label,
		Color: color,
	}
}

// MoveItem returns a copy of list with the element at from moved to index
// to. The input slice is left untouched.
func MoveItem[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) {
		return nil, fmt.Errorf("move from %d: %w", from, ErrIndexOutOfRange)
	}
	if to < 0 || to >= len(list) {
		return nil, fmt.Errorf("move to %d: %w", to, ErrIndexOutOfRange)
	}

	out := make([]T, 0, len(list))
	moved := list[from]
	for i, item := range list {
		if i == from {
			continue
		}
		out = append(out, item)
	}
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, nil
}

// RemoveItem returns a copy of items without the item with the given id.
func RemoveItem(items []models.LegendItem, id string) []models.LegendItem {
	out := make([]models.LegendItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []models.LegendItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
