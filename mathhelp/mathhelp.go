package mathhelp

// Percentage is floor(100 * part / total), clamped to [0, 100]. A zero total yields 0.
func Percentage(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	if part >= total {
		return 100
	}
	return int(int64(part) * 100 / int64(total))
}

func Bool2int(b bool) int {
	if b {
		return 1
	}
	return 0
}
