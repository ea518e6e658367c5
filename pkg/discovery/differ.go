package discovery

// Diff returns the links of after whose URL is absent from before, in the
// iteration order of after. Each returned link carries after's label.
func Diff(before, after *LinkSet) []Link {
	var added []Link
	for _, l := range after.Links() {
		if !before.Has(l.URL) {
			added = append(added, l)
		}
	}
	return added
}

// excluding returns the links whose URL is not in skip.
func excluding(links []Link, skip *LinkSet) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if !skip.Has(l.URL) {
			out = append(out, l)
		}
	}
	return out
}
