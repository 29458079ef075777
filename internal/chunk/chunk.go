// Package chunk splits outbound text into platform-sized pieces. Discord caps
// message length, so long replies are emitted as an ordered run of chunks.
package chunk

// DiscordLimit is the chunk size used for Discord messages. Kept below the
// hard 2000-character cap to leave headroom for client-side rendering.
const DiscordLimit = 1900

// Text partitions s into consecutive runs of at most limit characters,
// splitting on rune boundaries only. Every chunk except possibly the last has
// exactly limit characters, and concatenating the chunks reproduces s exactly.
// Text at or below the limit comes back as a single chunk unchanged.
func Text(s string, limit int) []string {
	if limit <= 0 {
		return []string{s}
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
