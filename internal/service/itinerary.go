package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/metrics"
	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/report"
)

// Generator posts a generateContent body to the relay and returns the raw
// response. gateway.RelayClient satisfies it.
type Generator interface {
	Generate(ctx context.Context, body []byte) ([]byte, error)
}

// TextGenerator runs a request against the provider and returns the model
// text. gateway.GenAIClient satisfies it.
type TextGenerator interface {
	GenerateText(ctx context.Context, req gateway.GenerateRequest) (string, error)
}

// FallbackPlaceIDs are the stops of the deterministic fallback option.
var FallbackPlaceIDs = []string{"p_1", "p_3", "p_4"}

// FallbackOptionName names the deterministic fallback option.
const FallbackOptionName = "Neighborhood Sampler"

// Generation request parameters.
const (
	generationTemperature = 0.2
	generationMaxTokens   = 1024
)

// Outcome labels for metrics.ItineraryGenerations.
const (
	outcomeGenerated     = "generated"
	outcomeFallbackNoKey = "fallback_no_key"
	outcomeFallbackError = "fallback_error"
	outcomeInvalid       = "fallback_invalid"
)

// ─── ItineraryService ───────────────────────────────────────

// ItineraryService turns constraints and a candidate catalog into ordered
// itinerary options using a generative-text provider.
//
// Provider calls go through the relay when one is configured, falling back
// to the direct provider. Without either, or when every attempt fails or
// returns nothing usable, the deterministic fallback option is returned.
type ItineraryService struct {
	relay   Generator     // nil when no relay is configured
	direct  TextGenerator // nil when no usable key is configured
	timeout time.Duration
	logger  *slog.Logger
}

// NewItineraryService creates a planner. relay and direct may be nil.
func NewItineraryService(relay Generator, direct TextGenerator, timeout time.Duration, logger *slog.Logger) *ItineraryService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &ItineraryService{
		relay:   relay,
		direct:  direct,
		timeout: timeout,
		logger:  logger.With("component", "itinerary"),
	}
}

// FetchItineraryOptions returns 1 to 3 options whose place ids all exist in
// candidates. It never fails.
func (s *ItineraryService) FetchItineraryOptions(
	ctx context.Context,
	constraints model.ItineraryConstraints,
	candidates []model.PlaceCandidate,
) model.ItineraryOptions {

	if s.relay == nil && s.direct == nil {
		metrics.ItineraryGenerations.WithLabelValues(outcomeFallbackNoKey).Inc()
		return FallbackItinerary(candidates)
	}

	parsed, err := s.generate(ctx, BuildGenerateRequest(constraints, candidates))
	if err != nil {
		metrics.ItineraryGenerations.WithLabelValues(outcomeFallbackError).Inc()
		return FallbackItinerary(candidates)
	}
	if !parsed.ok() {
		s.logger.Warn("discarding itinerary response", "error", parsed.err)
		metrics.ItineraryGenerations.WithLabelValues(outcomeInvalid).Inc()
		return FallbackItinerary(candidates)
	}

	options, dropped := validateOptions(parsed.options, candidates)
	if dropped > 0 {
		metrics.DroppedPlaceIDs.Add(float64(dropped))
		s.logger.Info("removed unknown place ids from options", "count", dropped)
	}
	if len(options) == 0 {
		s.logger.Warn("discarding itinerary response", "error", errNoValidStops)
		metrics.ItineraryGenerations.WithLabelValues(outcomeInvalid).Inc()
		return FallbackItinerary(candidates)
	}

	metrics.ItineraryGenerations.WithLabelValues(outcomeGenerated).Inc()
	return model.ItineraryOptions{Options: options}
}

// generate tries the relay, then the direct provider. The first transport
// that answers decides the result; an error means every transport failed.
func (s *ItineraryService) generate(ctx context.Context, req gateway.GenerateRequest) (parseResult, error) {
	var lastErr error

	if s.relay != nil {
		raw, err := s.viaRelay(ctx, req)
		if err == nil {
			return parseItineraryResponse(raw), nil
		}
		s.logger.Warn("itinerary generation failed", "provider", "relay", "error", err)
		report.ProviderFailure(err, "relay", "generate")
		lastErr = err
	}

	if s.direct != nil {
		text, err := s.viaProvider(ctx, req)
		if err == nil {
			return parseItineraryText(text), nil
		}
		s.logger.Warn("itinerary generation failed", "provider", "genai", "error", err)
		report.ProviderFailure(err, "genai", "generate")
		lastErr = err
	}

	return parseResult{}, lastErr
}

func (s *ItineraryService) viaRelay(ctx context.Context, req gateway.GenerateRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.relay.Generate(ctx, body)
}

func (s *ItineraryService) viaProvider(ctx context.Context, req gateway.GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.direct.GenerateText(ctx, req)
}

// ─── Prompt ─────────────────────────────────────────────────

// BuildGenerateRequest returns the provider request for one planning call.
func BuildGenerateRequest(constraints model.ItineraryConstraints, candidates []model.PlaceCandidate) gateway.GenerateRequest {
	return gateway.GenerateRequest{
		Contents: []gateway.Content{{
			Role:  "user",
			Parts: []gateway.Part{{Text: BuildPrompt(constraints, candidates)}},
		}},
		GenerationConfig: gateway.GenerationConfig{
			Temperature:      generationTemperature,
			MaxOutputTokens:  generationMaxTokens,
			ResponseMIMEType: "application/json",
			ThinkingConfig:   &gateway.ThinkingConfig{ThinkingBudget: 0},
		},
	}
}

// BuildPrompt embeds the constraints and the full candidate listing.
// Missing constraints are written as "no preference".
func BuildPrompt(constraints model.ItineraryConstraints, candidates []model.PlaceCandidate) string {
	var b strings.Builder

	b.WriteString("You plan short city outings. Pick stops only from the candidate list below.\n\n")

	b.WriteString("Constraints:\n")
	fmt.Fprintf(&b, "- start: %s\n", orNoPreference(constraints.StartLocation))
	vibe := ""
	if constraints.Vibe.Valid() {
		vibe = string(constraints.Vibe)
	}
	fmt.Fprintf(&b, "- vibe: %s\n", orNoPreference(vibe))
	budget := ""
	if constraints.Budget.Valid() {
		budget = string(constraints.Budget)
	}
	fmt.Fprintf(&b, "- budget: %s\n", orNoPreference(budget))
	if constraints.HoursOutside > 0 {
		fmt.Fprintf(&b, "- hours outside: %d\n", constraints.HoursOutside)
	} else {
		b.WriteString("- hours outside: no preference\n")
	}

	b.WriteString("\nCandidates (id | name | category | tags | price tier 1-4):\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %d\n",
			c.ID, c.Name, c.Category, strings.Join(c.Tags, ","), c.PriceTier)
	}

	fmt.Fprintf(&b, "\nReturn exactly one JSON object and nothing else, shaped as\n"+
		`{"options":[{"placeIds":["id",...],"name":"short title","priceBreakdown":"short cost summary"}]}`+"\n"+
		"with 1 to %d options, each listing %d to %d place ids in visit order. "+
		"Use only ids from the candidate list.\n",
		MaxOptions, MinStopsPerOption, MaxStopsPerOption)

	return b.String()
}

func orNoPreference(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "no preference"
	}
	return s
}

// ─── Fallback ───────────────────────────────────────────────

// FallbackItinerary returns the deterministic single option: the
// FallbackPlaceIDs present in candidates, or the first three candidates
// when fewer than two of them exist.
func FallbackItinerary(candidates []model.PlaceCandidate) model.ItineraryOptions {
	byID := make(map[string]model.PlaceCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	stops := make([]model.PlaceCandidate, 0, len(FallbackPlaceIDs))
	for _, id := range FallbackPlaceIDs {
		if c, ok := byID[id]; ok {
			stops = append(stops, c)
		}
	}
	if len(stops) < MinStopsPerOption {
		stops = stops[:0]
		for i := 0; i < len(candidates) && i < 3; i++ {
			stops = append(stops, candidates[i])
		}
	}

	ids := make([]string, len(stops))
	for i, c := range stops {
		ids[i] = c.ID
	}

	return model.ItineraryOptions{Options: []model.ItineraryOption{{
		PlaceIDs:       ids,
		Name:           FallbackOptionName,
		PriceBreakdown: priceNarrative(stops),
	}}}
}

// priceNarrative summarizes stop price tiers, e.g.
// "Ferry Building $$, Dolores Park $. Mostly affordable."
func priceNarrative(stops []model.PlaceCandidate) string {
	if len(stops) == 0 {
		return ""
	}
	parts := make([]string, len(stops))
	total := 0
	for i, c := range stops {
		tier := c.PriceTier
		if tier < 1 {
			tier = 1
		}
		total += tier
		parts[i] = c.Name + " " + strings.Repeat("$", tier)
	}

	var summary string
	switch avg := float64(total) / float64(len(stops)); {
	case avg < 1.75:
		summary = "Mostly affordable."
	case avg < 2.75:
		summary = "Moderate spend."
	default:
		summary = "On the pricier side."
	}
	return strings.Join(parts, ", ") + ". " + summary
}
