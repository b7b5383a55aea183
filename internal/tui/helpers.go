package tui

// truncate shortens a string to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		if max > 0 && len(r) > max {
			return string(r[:max])
		}
		return s
	}
	return string(r[:max-3]) + "..."
}

// clamp keeps i within [0, n)
func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
