package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/model"
)

// Limits applied to generated options.
const (
	MinStopsPerOption = 2
	MaxStopsPerOption = 4
	MaxOptions        = 3
)

var (
	errNotJSON      = errors.New("itinerary: response is not a JSON object")
	errNoOptions    = errors.New("itinerary: response has no options")
	errNoValidStops = errors.New("itinerary: no option survived validation")
)

// parseResult is either ok with options, or failed with a reason. Partial
// recovery is never attempted: a response that does not match the schema is
// a failure as a whole.
type parseResult struct {
	options []model.ItineraryOption
	err     error
}

func (r parseResult) ok() bool { return r.err == nil }

// generatedOptions is the object the model is asked to produce. It keeps
// the provider's field names; the API model uses its own.
type generatedOptions struct {
	Options []generatedOption `json:"options"`
}

type generatedOption struct {
	PlaceIDs       []string `json:"placeIds"`
	Name           string   `json:"name"`
	PriceBreakdown string   `json:"priceBreakdown"`
}

// parseItineraryResponse extracts the options from a relay body, which is
// either already unwrapped or the provider envelope.
func parseItineraryResponse(raw []byte) parseResult {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return parseResult{err: errNotJSON}
	}
	if _, unwrapped := fields["options"]; unwrapped {
		return parseItineraryText(string(raw))
	}

	var envelope gateway.GenerateResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return parseResult{err: errNotJSON}
	}
	return parseItineraryText(envelope.Text())
}

// parseItineraryText decodes model text, optionally fenced. The text must
// be exactly one JSON object; trailing prose is a failure.
func parseItineraryText(text string) parseResult {
	text = stripCodeFence(text)
	if text == "" {
		return parseResult{err: errNoOptions}
	}

	var out generatedOptions
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return parseResult{err: errNotJSON}
	}
	if len(out.Options) == 0 {
		return parseResult{err: errNoOptions}
	}

	options := make([]model.ItineraryOption, len(out.Options))
	for i, o := range out.Options {
		options[i] = model.ItineraryOption{
			PlaceIDs:       o.PlaceIDs,
			Name:           o.Name,
			PriceBreakdown: o.PriceBreakdown,
		}
	}
	return parseResult{options: options}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the info string ("json") on the opening line.
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// validateOptions keeps only ids present in candidates, removes repeated
// stops, truncates long options, drops options with too few stops and caps
// the option count. It returns the surviving options and how many ids were
// discarded as unknown.
func validateOptions(options []model.ItineraryOption, candidates []model.PlaceCandidate) ([]model.ItineraryOption, int) {
	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	dropped := 0
	out := make([]model.ItineraryOption, 0, len(options))
	for _, opt := range options {
		seen := make(map[string]struct{}, len(opt.PlaceIDs))
		ids := make([]string, 0, len(opt.PlaceIDs))
		for _, id := range opt.PlaceIDs {
			if _, ok := known[id]; !ok {
				dropped++
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) > MaxStopsPerOption {
			ids = ids[:MaxStopsPerOption]
		}
		if len(ids) < MinStopsPerOption {
			continue
		}
		opt.PlaceIDs = ids
		out = append(out, opt)
		if len(out) == MaxOptions {
			break
		}
	}
	return out, dropped
}
