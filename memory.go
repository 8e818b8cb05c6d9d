package dbfsql

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/nao1215/dbfsql/domain/model"
)

// Memory management constants
const (
	defaultMemoryLimit       = 512       // 512MB
	maxReasonableMemoryLimit = 64 * 1024 // 64GB - reasonable upper bound for most systems

	// Memory warning threshold
	defaultWarningThreshold = 0.8 // 80%

	// Memory conversion constants
	bytesPerMB = 1024 * 1024

	// Decoded records take roughly twice their on-disk size
	decodeOverheadFactor = 2.0

	// Atomic operation values
	atomicEnabled  = 1
	atomicDisabled = 0
)

// MemoryEstimate is the approximate RAM needed to decode a file.
type MemoryEstimate struct {
	// RecordCount is the number of record slots declared in the header
	RecordCount int
	// RecordWidth is the byte width of one record slot
	RecordWidth int
	// ChunkSize is the effective chunk size, at most RecordCount
	ChunkSize int
	// Clamped reports that the requested chunk size exceeded the record count
	Clamped bool
	// TotalMB is the estimate for decoding every record at once
	TotalMB float64
	// ChunkMB is the estimate for one chunk
	ChunkMB float64
}

// EstimateMemory returns the memory needed to decode schema's records, about
// twice the record bytes, in total and per chunk of chunkSize record slots.
// A chunkSize below 1 means the whole file is one chunk.
func EstimateMemory(schema *model.Schema, chunkSize int) MemoryEstimate {
	est := MemoryEstimate{
		RecordCount: schema.RecordCount(),
		RecordWidth: schema.RecordWidth(),
		ChunkSize:   chunkSize,
	}
	if chunkSize < 1 || chunkSize > est.RecordCount {
		est.Clamped = chunkSize > est.RecordCount
		est.ChunkSize = est.RecordCount
	}
	est.TotalMB = megabytes(est.RecordWidth, est.RecordCount)
	est.ChunkMB = megabytes(est.RecordWidth, est.ChunkSize)
	return est
}

func megabytes(width, count int) float64 {
	return decodeOverheadFactor * float64(width) * float64(count) / bytesPerMB
}

// Lines returns a human readable report of the estimate
func (m MemoryEstimate) Lines() []string {
	var lines []string
	switch {
	case m.Clamped:
		lines = append(lines,
			"Chunk size larger than number of records.",
			fmt.Sprintf("Chunk size set to %d.", m.RecordCount),
		)
	case m.ChunkSize < m.RecordCount:
		lines = append(lines, fmt.Sprintf("Each chunk will require %.4g MB of RAM.", m.ChunkMB))
	}
	return append(lines, fmt.Sprintf("This total process would require more than %.4g MB of RAM.", m.TotalMB))
}

// MemoryLimit provides configurable memory limits for database loads.
// It monitors heap usage between chunks and stops a load once the limit is exceeded.
//
// The system supports three states:
//   - OK: Memory usage is within acceptable limits
//   - WARNING: Memory usage approaches the limit
//   - EXCEEDED: Memory usage has exceeded the limit, processing should be halted
//
// Performance Note: CheckMemoryUsage() calls runtime.ReadMemStats which can
// pause for milliseconds. It is called once per chunk, never per record.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type MemoryLimit struct {
	maxMemoryMB      int64   // Maximum memory limit in MB
	warningThreshold float64 // Warning threshold as percentage (0.0-1.0)
	enabled          int32   // Atomic flag for enable/disable
}

// NewMemoryLimit creates a new memory limit configuration
func NewMemoryLimit(maxMemoryMB int64) *MemoryLimit {
	if maxMemoryMB <= 0 {
		maxMemoryMB = defaultMemoryLimit
	}
	if maxMemoryMB > maxReasonableMemoryLimit {
		maxMemoryMB = maxReasonableMemoryLimit
	}

	return &MemoryLimit{
		maxMemoryMB:      maxMemoryMB,
		warningThreshold: defaultWarningThreshold,
		enabled:          atomicEnabled,
	}
}

// IsEnabled returns whether memory limits are enabled
func (ml *MemoryLimit) IsEnabled() bool {
	return atomic.LoadInt32(&ml.enabled) == atomicEnabled
}

// Enable enables memory limit checking
func (ml *MemoryLimit) Enable() {
	atomic.StoreInt32(&ml.enabled, atomicEnabled)
}

// Disable disables memory limit checking
func (ml *MemoryLimit) Disable() {
	atomic.StoreInt32(&ml.enabled, atomicDisabled)
}

// SetWarningThreshold sets the warning threshold (0.0-1.0)
func (ml *MemoryLimit) SetWarningThreshold(threshold float64) {
	if threshold > 0.0 && threshold <= 1.0 {
		ml.warningThreshold = threshold
	}
}

// CheckMemoryUsage checks current memory usage against limits
func (ml *MemoryLimit) CheckMemoryUsage() MemoryStatus {
	if !ml.IsEnabled() {
		return MemoryStatusOK
	}
	return ml.statusOf(heapAllocMB())
}

func (ml *MemoryLimit) statusOf(currentMB int64) MemoryStatus {
	if currentMB >= ml.maxMemoryMB {
		return MemoryStatusExceeded
	}
	if float64(currentMB)/float64(ml.maxMemoryMB) >= ml.warningThreshold {
		return MemoryStatusWarning
	}
	return MemoryStatusOK
}

// GetMemoryInfo returns current memory usage information
func (ml *MemoryLimit) GetMemoryInfo() MemoryInfo {
	currentMB := heapAllocMB()
	status := MemoryStatusOK
	if ml.IsEnabled() {
		status = ml.statusOf(currentMB)
	}
	return MemoryInfo{
		CurrentMB: currentMB,
		LimitMB:   ml.maxMemoryMB,
		Usage:     float64(currentMB) / float64(ml.maxMemoryMB),
		Status:    status,
	}
}

// CreateMemoryError creates a memory limit error with helpful context
func (ml *MemoryLimit) CreateMemoryError(operation string) error {
	info := ml.GetMemoryInfo()
	return fmt.Errorf(
		"%w during %s: using %d MB / %d MB (%.1f%%), "+
			"consider reducing chunk size or increasing memory limit",
		ErrMemoryLimit, operation, info.CurrentMB, info.LimitMB, info.Usage*100,
	)
}

// afterChunk returns a chunk callback failing once the limit is exceeded
func (ml *MemoryLimit) afterChunk(operation string) func() error {
	return func() error {
		if ml.CheckMemoryUsage() == MemoryStatusExceeded {
			return ml.CreateMemoryError(operation)
		}
		return nil
	}
}

func heapAllocMB() int64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	mb := memStats.HeapAlloc / bytesPerMB
	if mb > uint64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(mb)
}

// MemoryStatus represents the current memory status
type MemoryStatus int

// Memory status constants
const (
	// MemoryStatusOK indicates memory usage is within acceptable limits
	MemoryStatusOK MemoryStatus = iota
	// MemoryStatusWarning indicates memory usage is approaching the limit
	MemoryStatusWarning
	// MemoryStatusExceeded indicates memory usage has exceeded the limit
	MemoryStatusExceeded
)

// String returns string representation of memory status
func (ms MemoryStatus) String() string {
	switch ms {
	case MemoryStatusOK:
		return "OK"
	case MemoryStatusWarning:
		return "WARNING"
	case MemoryStatusExceeded:
		return "EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// MemoryInfo contains detailed memory usage information
type MemoryInfo struct {
	CurrentMB int64        // Current memory usage in MB
	LimitMB   int64        // Memory limit in MB
	Usage     float64      // Usage percentage (0.0-1.0)
	Status    MemoryStatus // Current status
}
