package utils

// ShortHash truncates a hex hash for log output.
func ShortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:8] + ".." + h[len(h)-4:]
}
