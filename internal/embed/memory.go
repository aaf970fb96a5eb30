package embed

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Memory thresholds for adaptive batch sizing.
const (
	memoryComfortable = 4 * 1024 * 1024 * 1024 // 4 GB
	memoryConstrained = 2 * 1024 * 1024 * 1024 // 2 GB
)

// availableMemory estimates available system memory in bytes.
// On Linux it reads MemAvailable from /proc/meminfo; elsewhere it assumes a
// comfortable development machine so batching stays at the default size.
func availableMemory() uint64 {
	if avail, ok := readMemAvailable("/proc/meminfo"); ok {
		return avail
	}
	return memoryComfortable
}

// readMemAvailable parses the MemAvailable line (kB) from a meminfo file.
func readMemAvailable(path string) (uint64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}

// batchSizeFor picks a batch size from the available-memory tiers, never
// exceeding the number of texts. Any batch size produces identical final
// embeddings; this only bounds transient memory.
func batchSizeFor(numTexts int, minSize, defaultSize, maxSize int, available uint64) int {
	var size int
	switch {
	case available > memoryComfortable:
		size = maxSize
	case available > memoryConstrained:
		size = defaultSize
	default:
		size = minSize
	}
	if size > numTexts {
		size = numTexts
	}
	if size < 1 {
		size = 1
	}
	return size
}
