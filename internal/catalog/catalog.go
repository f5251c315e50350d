// Package catalog serves the static candidate place list of each supported
// city. Catalogs are embedded JSON files named after the city key.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/shiva/wayfarer/internal/model"
)

// ErrUnknownCity is returned for cities without a catalog.
var ErrUnknownCity = errors.New("unknown city")

//go:embed data/*.json
var files embed.FS

var (
	loadOnce sync.Once
	cities   map[string][]model.PlaceCandidate
	byID     map[string]model.PlaceCandidate
	loadErr  error
)

func load() {
	cities = make(map[string][]model.PlaceCandidate)
	byID = make(map[string]model.PlaceCandidate)

	entries, err := fs.Glob(files, "data/*.json")
	if err != nil {
		loadErr = err
		return
	}
	sort.Strings(entries)

	for _, name := range entries {
		raw, err := files.ReadFile(name)
		if err != nil {
			loadErr = fmt.Errorf("read %s: %w", name, err)
			return
		}
		var places []model.PlaceCandidate
		if err := json.Unmarshal(raw, &places); err != nil {
			loadErr = fmt.Errorf("decode %s: %w", name, err)
			return
		}
		city := strings.TrimSuffix(strings.TrimPrefix(name, "data/"), ".json")
		cities[city] = places
		for _, p := range places {
			if _, dup := byID[p.ID]; !dup {
				byID[p.ID] = p
			}
		}
	}
}

// Lookup returns a copy of the city's catalog. City keys are matched
// case-insensitively.
func Lookup(city string) ([]model.PlaceCandidate, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	places, ok := cities[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}
	return append([]model.PlaceCandidate(nil), places...), nil
}

// Place returns a catalog entry by id. When two cities share an id the
// first city in lexical order wins.
func Place(id string) (model.PlaceCandidate, bool) {
	loadOnce.Do(load)
	p, ok := byID[id]
	return p, ok
}

// Cities lists the available city keys in lexical order.
func Cities() []string {
	loadOnce.Do(load)
	out := make([]string, 0, len(cities))
	for c := range cities {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
