package model

// PlanChunks splits total record slots into chunks of at most size slots.
// Every chunk equals size except a trailing remainder. When size is at least
// total, or size is below 1, the plan is a single chunk of total.
// The chunks always sum to total.
func PlanChunks(total, size int) []int {
	if total < 0 {
		total = 0
	}
	if size < 1 || size >= total {
		return []int{total}
	}

	n := total / size
	chunks := make([]int, n, n+1)
	for i := range chunks {
		chunks[i] = size
	}
	if rem := total % size; rem != 0 {
		chunks = append(chunks, rem)
	}
	return chunks
}
