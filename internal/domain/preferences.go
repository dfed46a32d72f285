package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Preferences - формат сохраненных настроек фильтра (и тела POST /save).
// Потолки приходят строками, как их отдает форма фронтенда.
type Preferences struct {
	Search    *string  `json:"search,omitempty"`
	Google    *string  `json:"google,omitempty"`
	Wikipedia *string  `json:"wikipedia,omitempty"`
	Initial   *string  `json:"initial,omitempty"`
	Grades    []string `json:"grades,omitempty"`
}

func (p Preferences) Validate() error {
	for _, g := range p.Grades {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("%w: empty grade", ErrInvalidPreferences)
		}
	}
	return nil
}

// ToFilterConfig converts the wire form. Ceilings that don't parse as a finite
// non-negative number are dropped, so that probe stays unconfigured.
func (p Preferences) ToFilterConfig() FilterConfig {
	cfg := FilterConfig{}
	if len(p.Grades) > 0 {
		cfg.Grades = append([]string(nil), p.Grades...)
	}

	fields := map[Probe]*string{
		ProbeSearch:          p.Search,
		ProbeSearchGoogle:    p.Google,
		ProbeSearchWikipedia: p.Wikipedia,
		ProbeInitial:         p.Initial,
	}
	for probe, raw := range fields {
		v, ok := parseCeiling(raw)
		if !ok {
			continue
		}
		if cfg.Ceilings == nil {
			cfg.Ceilings = make(map[Probe]float64)
		}
		cfg.Ceilings[probe] = v
	}
	return cfg
}

func PreferencesFromFilterConfig(cfg FilterConfig) Preferences {
	p := Preferences{}
	if len(cfg.Grades) > 0 {
		p.Grades = append([]string(nil), cfg.Grades...)
	}
	format := func(probe Probe) *string {
		v, ok := cfg.Ceiling(probe)
		if !ok {
			return nil
		}
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	}
	p.Search = format(ProbeSearch)
	p.Google = format(ProbeSearchGoogle)
	p.Wikipedia = format(ProbeSearchWikipedia)
	p.Initial = format(ProbeInitial)
	return p
}

func parseCeiling(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
