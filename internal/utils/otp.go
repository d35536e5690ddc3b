package utils

import "math/rand/v2"

// GenerateOTP generates a random numeric code of the given length.
func GenerateOTP(length int) string {
	if length <= 0 {
		return ""
	}
	const charset = "0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}
