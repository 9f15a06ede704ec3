package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/lchant/loom/config"
)

// HallEntry records one standout life.
type HallEntry struct {
	Seed          uint64  `json:"seed"`
	Fitness       float64 `json:"fitness"`
	FinalWealth   float64 `json:"final_wealth"`
	PeakWealth    float64 `json:"peak_wealth"`
	EliteYears    int     `json:"elite_years"`
	FinalAge      int     `json:"final_age"`
	WindowOutcome string  `json:"window_outcome"`
	Moves         int     `json:"moves"`
	Ventures      int     `json:"ventures"`
}

// HallOfFame keeps the highest-fitness lives of a batch, one hall per
// final city so a cheap hinterland does not drown out its own best runs.
type HallOfFame struct {
	halls   map[string][]HallEntry
	maxSize int
	weights config.HallOfFameConfig
}

// NewHallOfFame creates an empty hall of fame sized from config.
func NewHallOfFame(cfg config.HallOfFameConfig) *HallOfFame {
	size := cfg.Size
	if size < 1 {
		size = 10
	}
	return &HallOfFame{
		halls:   make(map[string][]HallEntry),
		maxSize: size,
		weights: cfg,
	}
}

// Fitness scores a life by weighted net wealth, elite tenure, and longevity.
func (h *HallOfFame) Fitness(ls LifeStats) float64 {
	return (ls.FinalWealth+ls.PropertyValue)*h.weights.WealthWeight +
		float64(ls.EliteYears)*h.weights.EliteYearsWeight +
		float64(ls.FinalAge)*h.weights.LongevityWeight
}

// Consider evaluates a completed life for hall entry.
// Returns true if the life was added to its city's hall.
func (h *HallOfFame) Consider(ls LifeStats) bool {
	entry := HallEntry{
		Seed:          ls.Seed,
		Fitness:       h.Fitness(ls),
		FinalWealth:   ls.FinalWealth,
		PeakWealth:    ls.PeakWealth,
		EliteYears:    ls.EliteYears,
		FinalAge:      ls.FinalAge,
		WindowOutcome: ls.WindowOutcome,
		Moves:         ls.Moves,
		Ventures:      ls.Ventures,
	}
	return h.insertEntry(ls.FinalCity, entry)
}

// insertEntry adds an entry to a city's hall, keeping it sorted
// descending by fitness. A full hall drops the lowest entry.
func (h *HallOfFame) insertEntry(city string, entry HallEntry) bool {
	hall := h.halls[city]

	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= h.maxSize && idx >= h.maxSize {
		return false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > h.maxSize {
		hall = hall[:h.maxSize]
	}

	h.halls[city] = hall
	return true
}

// Size returns the number of entries for a given city.
func (h *HallOfFame) Size(city string) int {
	return len(h.halls[city])
}

// TopFitness returns the highest fitness in a city's hall, zero when empty.
func (h *HallOfFame) TopFitness(city string) float64 {
	hall := h.halls[city]
	if len(hall) == 0 {
		return 0
	}
	return hall[0].Fitness
}

// Cities returns the cities with at least one entry, sorted by name.
func (h *HallOfFame) Cities() []string {
	out := make([]string, 0, len(h.halls))
	for city := range h.halls {
		out = append(out, city)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON serializes the hall of fame, keyed by city name.
func (h *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make(map[string][]HallEntry, len(h.halls))
	for city, hall := range h.halls {
		export[city] = hall
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFame reads a hall of fame JSON file back into memory,
// preserving each hall's fitness order.
func LoadHallOfFame(path string, cfg config.HallOfFameConfig) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw map[string][]HallEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(cfg)
	for city, entries := range raw {
		for _, e := range entries {
			hof.insertEntry(city, e)
		}
	}
	return hof, nil
}
