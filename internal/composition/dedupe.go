package composition

import "strings"

// dedupeParagraphsReverse walks content's paragraphs from last to first,
// dropping any paragraph whose shingle set intersects one already kept
// (so the later, higher-priority occurrence of a paragraph wins) and
// reassembling the survivors in their original order.
func dedupeParagraphsReverse(content string, k int) string {
	paras := splitParagraphs(content)
	keep := make([]bool, len(paras))
	seen := map[string]bool{}

	for i := len(paras) - 1; i >= 0; i-- {
		p := paras[i]
		if strings.TrimSpace(p) == "" {
			keep[i] = true
			continue
		}
		sh := shingleSet(p, k)
		if shinglesIntersect(sh, seen) {
			keep[i] = false
			continue
		}
		keep[i] = true
		mergeShingles(seen, sh)
	}

	var out []string
	for i, p := range paras {
		if keep[i] {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

// concatenateDedupe dedupes layers (given in ascending-precedence order,
// project last) layer by layer, processing from highest to lowest
// priority so the project layer's paragraphs always win over a core
// layer's duplicate, then reassembles survivors in the original
// core-first order.
func concatenateDedupe(layers []LayerContent, k int) string {
	n := len(layers)
	paragraphsPerLayer := make([][]string, n)
	for i, l := range layers {
		paragraphsPerLayer[i] = splitParagraphs(l.Content)
	}

	keepMask := make([][]bool, n)
	seen := map[string]bool{}
	for i := n - 1; i >= 0; i-- {
		paras := paragraphsPerLayer[i]
		mask := make([]bool, len(paras))
		for pIdx, p := range paras {
			if strings.TrimSpace(p) == "" {
				mask[pIdx] = true
				continue
			}
			sh := shingleSet(p, k)
			if shinglesIntersect(sh, seen) {
				mask[pIdx] = false
				continue
			}
			mask[pIdx] = true
			mergeShingles(seen, sh)
		}
		keepMask[i] = mask
	}

	var kept []string
	for i := 0; i < n; i++ {
		for pIdx, p := range paragraphsPerLayer[i] {
			if keepMask[i][pIdx] {
				kept = append(kept, p)
			}
		}
	}
	return strings.Join(kept, "\n\n")
}
