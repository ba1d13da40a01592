package utils

// ToStringSlice converts a slice of any string-backed type into plain strings.
func ToStringSlice[T ~string](slice []T) []string {
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		stringSlice = append(stringSlice, string(v))
	}
	return stringSlice
}
