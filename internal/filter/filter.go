// Package filter turns a raw instance directory into the set of candidate URLs.
package filter

import (
	"sort"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

// Apply returns the sorted URLs of every directory entry that passes the grade,
// network and timing predicates. Pure, no I/O.
func Apply(dir domain.Directory, cfg domain.FilterConfig) []string {
	urls := make([]string, 0, len(dir))
	for url, inst := range dir {
		if Accepts(inst, cfg) {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)
	return urls
}

func Accepts(inst domain.Instance, cfg domain.FilterConfig) bool {
	return gradeOK(inst, cfg) && networkOK(inst) && timingOK(inst, cfg)
}

func gradeOK(inst domain.Instance, cfg domain.FilterConfig) bool {
	return cfg.AcceptsGrade(inst.Grade)
}

func networkOK(inst domain.Instance) bool {
	return inst.NetworkType == domain.NetworkTypeNormal
}

// timingOK: проба без потолка проходит всегда, проба с потолком но без
// значения у инстанса - не проходит (fail-closed)
func timingOK(inst domain.Instance, cfg domain.FilterConfig) bool {
	for _, probe := range domain.Probes {
		ceiling, configured := cfg.Ceiling(probe)
		if !configured {
			continue
		}
		mean, ok := inst.Mean(probe)
		if !ok || !(mean < ceiling) {
			return false
		}
	}
	return true
}
