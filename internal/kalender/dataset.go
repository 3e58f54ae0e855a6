package kalender

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

//go:embed data/kalender_akademik.yaml
var embeddedData embed.FS

const embeddedPath = "data/kalender_akademik.yaml"

// Default returns the academic calendar compiled into the binary.
func Default() ([]model.Category, error) {
	data, err := embeddedData.ReadFile(embeddedPath)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Load reads the calendar from path, or the embedded one when path is empty.
func Load(path string) ([]model.Category, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cats, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("kalender %s: %w", path, err)
	}
	appLog.Info("academic calendar loaded", "path", path, "categories", len(cats))
	return cats, nil
}

// Decode parses a YAML calendar and checks that category codes are unique and
// every item has a name.
func Decode(data []byte) ([]model.Category, error) {
	var cats []model.Category
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, errors.New("calendar has no categories")
	}

	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if c.Code == "" {
			return nil, fmt.Errorf("category %q has no code", c.Name)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("duplicate category code %q", c.Code)
		}
		seen[c.Code] = true

		for _, it := range c.Items {
			if it.Name == "" {
				return nil, fmt.Errorf("category %s: item %q has no name", c.Code, it.ID)
			}
			for _, sub := range it.SubItems {
				if sub.Name == "" {
					return nil, fmt.Errorf("category %s: sub-item %q has no name", c.Code, sub.ID)
				}
				if len(sub.SubItems) > 0 {
					return nil, fmt.Errorf("category %s: sub-item %q nests deeper than one level", c.Code, sub.ID)
				}
			}
		}
	}
	return cats, nil
}

// DisplayCategories returns a copy of cats with every date text passed
// through FormatForDisplay.
func DisplayCategories(cats []model.Category) []model.Category {
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		c.Items = displayItems(c.Items)
		out[i] = c
	}
	return out
}

func displayItems(items []model.CalendarItem) []model.CalendarItem {
	if items == nil {
		return nil
	}
	out := make([]model.CalendarItem, len(items))
	for i, it := range items {
		it.Ganjil = FormatForDisplay(it.Ganjil)
		it.Genap = FormatForDisplay(it.Genap)
		it.SubItems = displayItems(it.SubItems)
		out[i] = it
	}
	return out
}
