package service

import (
	"strconv"
	"strings"

	"github.com/atinyakov/stockroom/internal/models"
)

// ParseNewItem validates the add form. A new item needs a name and a
// positive whole quantity.
func ParseNewItem(f models.ItemForm) (models.ItemInput, error) {
	in, err := parseItem(f)
	if err != nil {
		return models.ItemInput{}, err
	}
	if in.Quantity == 0 {
		return models.ItemInput{}, invalid("quantity", "quantity of a new item must be positive")
	}
	return in, nil
}

// ParseEditedItem validates the edit form. Zero stock is allowed.
func ParseEditedItem(f models.ItemForm) (models.ItemInput, error) {
	return parseItem(f)
}

func parseItem(f models.ItemForm) (models.ItemInput, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return models.ItemInput{}, invalid("name", "name is required")
	}
	qty, err := parseQuantity(f.Quantity)
	if err != nil {
		return models.ItemInput{}, err
	}
	return models.ItemInput{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		Quantity:    qty,
	}, nil
}

// parseQuantity keeps "absent" and "not a number" apart.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid("quantity", "quantity is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("quantity", "quantity must be a whole number")
	}
	if n < 0 {
		return 0, invalid("quantity", "quantity must not be negative")
	}
	return n, nil
}
