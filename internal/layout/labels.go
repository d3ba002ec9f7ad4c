package layout

import "strconv"

// GenerateRowLabels produces count row labels in order.  The first 26 rows
// are lettered prefix+A through prefix+Z; later rows switch to a numbered
// form such as prefix+"R27".  The function is pure and is used whenever a
// floor does not carry explicit row labels.
func GenerateRowLabels(count int, prefix string) []string {
	if count <= 0 {
		return []string{}
	}
	labels := make([]string, count)
	for i := range labels {
		labels[i] = rowLabelAt(i, prefix)
	}
	return labels
}

// rowLabelAt returns the label for a single zero-based row index.
func rowLabelAt(i int, prefix string) string {
	if i < 0 {
		return ""
	}
	if i < 26 {
		return prefix + string(rune('A'+i))
	}
	return prefix + "R" + strconv.Itoa(i+1)
}
