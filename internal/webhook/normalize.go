package webhook

import (
	"net/url"
	"sort"
)

// Record maps display labels (or raw names for unrecognized fields) to decoded values.
// It is built fresh for every request.
type Record map[string]string

// Lookup returns the value stored under label and whether it was present.
func (r Record) Lookup(label string) (string, bool) {
	v, ok := r[label]
	return v, ok
}

// Normalizer relabels provider fields using the fixed label table.
// It is immutable after construction and safe for concurrent use.
type Normalizer struct {
	labels map[string]string
}

// NewNormalizer builds a normalizer. withUnits selects unit-suffixed AMD labels,
// e.g. "AMD Duration (ms)" instead of "AMD Duration".
func NewNormalizer(withUnits bool) *Normalizer {
	labels := make(map[string]string, len(fieldTable))
	for _, f := range fieldTable {
		labels[f.Name] = f.DisplayLabel(withUnits)
	}
	return &Normalizer{labels: labels}
}

// DisplayName returns the label for name, or name itself when it is not in the table.
func (n *Normalizer) DisplayName(name string) string {
	if l, ok := n.labels[name]; ok {
		return l
	}
	return name
}

// Normalize decodes every value and relabels recognized fields.
// Unrecognized names pass through unchanged. It never fails.
//
// If a passthrough name collides with a label, the labeled entry wins.
func (n *Normalizer) Normalize(req Request) Record {
	names := make([]string, 0, len(req.Params))
	for name := range req.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Record, len(names))
	var known []string
	for _, name := range names {
		if _, ok := n.labels[name]; ok {
			known = append(known, name)
			continue
		}
		out[name] = Decode(req.Params[name])
	}
	for _, name := range known {
		out[n.labels[name]] = Decode(req.Params[name])
	}
	return out
}

// Decode percent-decodes v. '+' is kept literally and a value with a malformed
// escape is returned unchanged.
func Decode(v string) string {
	d, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return d
}
