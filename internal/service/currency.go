package service

import "strings"

// NormalizeCode trims and upper-cases code and checks it is exactly three
// ASCII letters.
func NormalizeCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != 3 {
		return "", invalidCode(code)
	}
	for i := 0; i < len(normalized); i++ {
		if normalized[i] < 'A' || normalized[i] > 'Z' {
			return "", invalidCode(code)
		}
	}
	return normalized, nil
}
