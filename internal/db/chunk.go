package db

// ChunkStrings splits keys into runs of at most size elements, so multi-key
// lookups stay under the backend's bound-parameter ceiling. A size of zero or
// less means no limit.
func ChunkStrings(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	if size <= 0 || size >= len(keys) {
		return [][]string{keys}
	}

	chunks := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
