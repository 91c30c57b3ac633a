package agoratools

func Map[T any, Y any](input []T, convert func(T) Y) []Y {
	result := make([]Y, 0, len(input))
	for _, item := range input {
		result = append(result, convert(item))
	}

	return result
}

func Filter[T any](input []T, keep func(T) bool) []T {
	result := []T{}
	for _, item := range input {
		if keep(item) {
			result = append(result, item)
		}
	}

	return result
}

// IndexBy keys items by the value key returns. Later items win on collisions.
func IndexBy[T any, K comparable](input []T, key func(T) K) map[K]T {
	result := make(map[K]T, len(input))
	for _, item := range input {
		result[key(item)] = item
	}

	return result
}
