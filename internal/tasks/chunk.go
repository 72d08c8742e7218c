package tasks

// DefaultChunkSize is the most track URIs sent in one add-tracks request.
const DefaultChunkSize = 100

// Chunk partitions items into consecutive slices of at most size elements, in order.
//
// A non-positive size yields a single chunk. Chunks share the backing array of items but cannot append into each
// other.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
