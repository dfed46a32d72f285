package domain

import "slices"

var DefaultGrades = []string{"C", "V"}

// FilterConfig - правила отбора инстансов. Сеть (normal) не настраивается.
type FilterConfig struct {
	Grades   []string
	Ceilings map[Probe]float64
}

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{}
}

// EffectiveGrades returns Grades, or DefaultGrades when none are set.
func (c FilterConfig) EffectiveGrades() []string {
	if len(c.Grades) == 0 {
		return DefaultGrades
	}
	return c.Grades
}

func (c FilterConfig) AcceptsGrade(grade string) bool {
	return slices.Contains(c.EffectiveGrades(), grade)
}

// Ceiling returns the configured ceiling for a probe in seconds.
func (c FilterConfig) Ceiling(p Probe) (float64, bool) {
	if c.Ceilings == nil {
		return 0, false
	}
	v, ok := c.Ceilings[p]
	return v, ok
}

// Clone returns a deep copy so the caller can't mutate a shared config.
func (c FilterConfig) Clone() FilterConfig {
	out := FilterConfig{Grades: slices.Clone(c.Grades)}
	if c.Ceilings != nil {
		out.Ceilings = make(map[Probe]float64, len(c.Ceilings))
		for k, v := range c.Ceilings {
			out.Ceilings[k] = v
		}
	}
	return out
}
