package space

import (
	"encoding/json"
	"fmt"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

// ключи проб в timing у searx.space
var probeKeys = map[domain.Probe]string{
	domain.ProbeInitial:         "initial",
	domain.ProbeSearch:          "search",
	domain.ProbeSearchGoogle:    "search_go",
	domain.ProbeSearchWikipedia: "search_wp",
}

// decodeDirectory parses the instances.json document. Only a broken document or
// a missing/non-object "instances" field is an error; a bad entry just yields
// an Instance with empty fields, which the filter rejects.
func decodeDirectory(body []byte) (domain.Directory, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode directory: %v", domain.ErrDirectoryUnavailable, err)
	}

	raw, ok := doc["instances"]
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("%w: no instances prop", domain.ErrDirectoryUnavailable)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: instances is not an object: %v", domain.ErrDirectoryUnavailable, err)
	}

	dir := make(domain.Directory, len(entries))
	for url, entry := range entries {
		dir[url] = decodeInstance(url, entry)
	}
	return dir, nil
}

func decodeInstance(url string, raw json.RawMessage) domain.Instance {
	inst := domain.Instance{URL: url}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return inst
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return inst
	}

	inst.Grade = str(path(obj, "html", "grade"))
	inst.NetworkType = str(obj["network_type"])
	inst.Version = str(obj["version"])

	for probe, key := range probeKeys {
		mean, ok := path(obj, "timing", key, "all", "mean").(float64)
		if !ok {
			continue
		}
		if inst.Timing == nil {
			inst.Timing = make(map[domain.Probe]float64, len(probeKeys))
		}
		inst.Timing[probe] = mean
	}

	return inst
}

func path(obj map[string]any, keys ...string) any {
	var cur any = obj
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
