package domain

// Probe - категория замера латентности в каталоге
type Probe string

const (
	ProbeInitial         Probe = "initial"
	ProbeSearch          Probe = "search"
	ProbeSearchGoogle    Probe = "search_google"
	ProbeSearchWikipedia Probe = "search_wikipedia"
)

// Probes in a fixed order, used wherever iteration must be deterministic.
var Probes = []Probe{ProbeInitial, ProbeSearch, ProbeSearchGoogle, ProbeSearchWikipedia}

func (p Probe) IsValid() bool {
	switch p {
	case ProbeInitial, ProbeSearch, ProbeSearchGoogle, ProbeSearchWikipedia:
		return true
	}
	return false
}

func (p Probe) String() string { return string(p) }

const NetworkTypeNormal = "normal"

// Instance - запись каталога, живет только в рамках одного refresh.
// Timing хранит только разобранные средние значения (секунды); отсутствующая
// или нечитаемая проба в map просто не попадает.
type Instance struct {
	URL         string
	Grade       string
	NetworkType string
	Version     string
	Timing      map[Probe]float64
}

// Mean returns the mean latency for a probe and whether it was reported.
func (i Instance) Mean(p Probe) (float64, bool) {
	if i.Timing == nil {
		return 0, false
	}
	v, ok := i.Timing[p]
	return v, ok
}

// Directory maps instance URL to its record.
type Directory map[string]Instance
