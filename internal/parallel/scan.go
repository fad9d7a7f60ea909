package parallel

// Integer constrains the element types the scan primitive supports: the two
// offset index widths plus the host int used for key boundaries.
type Integer interface {
	~int32 | ~int64 | ~int
}

// scanChunks returns the chunk partitioning used by InclusiveSum for n
// inputs. The same partitioning must be used for both phases.
func scanChunks(n int, cfg Config) int {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		return 1
	}
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	return (n + chunkSize - 1) / chunkSize
}

// ScanScratchSize returns the scratch length InclusiveSum needs for n
// inputs. Callers size the scratch once and may reuse it across many scans
// of the same length (two-phase protocol: query size, then execute).
func ScanScratchSize(n int, cfg Config) int {
	return scanChunks(n, cfg)
}

// InclusiveSum computes the inclusive prefix sum of src into dst, so that
// dst[i] = src[0] + ... + src[i]. It converts per-segment lengths into
// cumulative offsets. dst and src must have length n; scratch must have at
// least ScanScratchSize(n, cfg) entries.
//
// Phase 1 reduces each chunk to its total in parallel; the chunk totals are
// scanned sequentially (there are at most NumWorkers of them); phase 2
// rescans each chunk in parallel, seeded with its running base.
func InclusiveSum[T Integer](dst, src []T, scratch []T, cfg Config) {
	n := len(src)
	if len(dst) != n {
		panic("parallel: InclusiveSum dst/src length mismatch")
	}
	if n == 0 {
		return
	}

	chunks := scanChunks(n, cfg)
	if len(scratch) < chunks {
		panic("parallel: InclusiveSum scratch too small (use ScanScratchSize)")
	}
	if chunks == 1 {
		var sum T
		for i, v := range src {
			sum += v
			dst[i] = sum
		}
		return
	}

	chunkSize := (n + chunks - 1) / chunks

	// Phase 1: per-chunk totals.
	For(chunks, func(c int) {
		begin := c * chunkSize
		end := min(begin+chunkSize, n)
		var sum T
		for i := begin; i < end; i++ {
			sum += src[i]
		}
		scratch[c] = sum
	}, cfg)

	// Exclusive scan of the chunk totals.
	var running T
	for c := 0; c < chunks; c++ {
		total := scratch[c]
		scratch[c] = running
		running += total
	}

	// Phase 2: rescan each chunk seeded with its base.
	For(chunks, func(c int) {
		begin := c * chunkSize
		end := min(begin+chunkSize, n)
		sum := scratch[c]
		for i := begin; i < end; i++ {
			sum += src[i]
			dst[i] = sum
		}
	}, cfg)
}
