// Package diagnostics captures process memory state once per monitor cycle.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	profilePrefix = "heap-"
	profileSuffix = ".pprof"
)

// ResourceUsage represents current process and host resource usage
type ResourceUsage struct {
	AllocMB              int64   `json:"allocMb"`
	SysMB                int64   `json:"sysMb"`
	HeapObjects          uint64  `json:"heapObjects"`
	Goroutines           int     `json:"goroutines"`
	GCCount              int64   `json:"gcCount"`
	NextGCMB             int64   `json:"nextGcMb"`
	SystemMemUsedMB      int64   `json:"systemMemUsedMb"`
	SystemMemTotalMB     int64   `json:"systemMemTotalMb"`
	SystemMemUsedPercent float64 `json:"systemMemUsedPercent"`
	CPUUsagePercent      float64 `json:"cpuUsagePercent"`
}

// Snapshot is one captured diagnostics record.
type Snapshot struct {
	TakenAt     time.Time     `json:"takenAt"`
	Usage       ResourceUsage `json:"usage"`
	ProfilePath string        `json:"profilePath,omitempty"`
}

// Recorder takes snapshots and rotates heap profiles on disk.
type Recorder struct {
	config config.DiagnosticsConfig
	logger zerolog.Logger
	mu     sync.Mutex
	last   *Snapshot
}

// NewRecorder creates a diagnostics recorder
func NewRecorder(cfg config.DiagnosticsConfig, logger zerolog.Logger) *Recorder {
	if cfg.MaxProfiles <= 0 {
		cfg.MaxProfiles = config.DefaultDiagnosticsMaxProfiles
	}
	return &Recorder{
		config: cfg,
		logger: logger.With().Str("component", "Diagnostics").Logger(),
	}
}

// GetResourceUsage returns current resource usage statistics
func GetResourceUsage() ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:     int64(m.Alloc / 1024 / 1024),
		SysMB:       int64(m.Sys / 1024 / 1024),
		HeapObjects: m.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
		GCCount:     int64(m.NumGC),
		NextGCMB:    int64(m.NextGC / 1024 / 1024),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedMB = int64(vmStat.Used / 1024 / 1024)
		usage.SystemMemTotalMB = int64(vmStat.Total / 1024 / 1024)
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	// Interval 0 compares against the previous call and does not block.
	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		usage.CPUUsagePercent = cpuPercents[0]
	}

	return usage
}

// Snapshot records resource usage and, when a profile directory is
// configured, writes a heap profile. Callers only log the error.
func (r *Recorder) Snapshot(now time.Time) (Snapshot, error) {
	snap := Snapshot{TakenAt: now.UTC(), Usage: GetResourceUsage()}

	if !r.config.Enabled {
		return snap, nil
	}

	var err error
	if r.config.HeapProfileDir != "" {
		snap.ProfilePath, err = r.writeHeapProfile(now)
		if err == nil {
			err = r.pruneProfiles()
		}
	}

	r.mu.Lock()
	r.last = &snap
	r.mu.Unlock()

	r.logger.Info().
		Int64("alloc_mb", snap.Usage.AllocMB).
		Int64("sys_mb", snap.Usage.SysMB).
		Uint64("heap_objects", snap.Usage.HeapObjects).
		Int("goroutines", snap.Usage.Goroutines).
		Float64("system_mem_used_percent", snap.Usage.SystemMemUsedPercent).
		Str("profile", snap.ProfilePath).
		Msg("Diagnostics snapshot")

	return snap, err
}

// Last returns the most recent snapshot, if any.
func (r *Recorder) Last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Snapshot{}, false
	}
	return *r.last, true
}

func (r *Recorder) writeHeapProfile(now time.Time) (string, error) {
	if err := os.MkdirAll(r.config.HeapProfileDir, 0755); err != nil {
		return "", common.WrapError(err, "failed to create heap profile directory")
	}

	name := fmt.Sprintf("%s%s%s", profilePrefix, now.UTC().Format("20060102T150405.000000000"), profileSuffix)
	path := filepath.Join(r.config.HeapProfileDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", common.WrapError(err, "failed to create heap profile")
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return "", common.WrapError(err, "failed to write heap profile")
	}
	return path, nil
}

// pruneProfiles keeps the newest MaxProfiles files. Names sort by time.
func (r *Recorder) pruneProfiles() error {
	entries, err := os.ReadDir(r.config.HeapProfileDir)
	if err != nil {
		return common.WrapError(err, "failed to list heap profiles")
	}

	var profiles []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, profilePrefix) && strings.HasSuffix(name, profileSuffix) {
			profiles = append(profiles, name)
		}
	}
	if len(profiles) <= r.config.MaxProfiles {
		return nil
	}

	sort.Strings(profiles)
	for _, name := range profiles[:len(profiles)-r.config.MaxProfiles] {
		if err := os.Remove(filepath.Join(r.config.HeapProfileDir, name)); err != nil {
			return common.WrapErrorf(err, "failed to remove heap profile %s", name)
		}
	}
	return nil
}
