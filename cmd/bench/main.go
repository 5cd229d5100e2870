// Bench measures Bloom filter build throughput, query latency, the measured
// false-positive rate and memory usage.
//
// Usage:
//
//	go run ./cmd/bench -keys 1000000 -fpr 0.01
//
// Flags:
//
//	-keys      Number of members to insert (default: 1,000,000)
//	-fpr       Target false-positive rate (default: 0.01)
//	-probes    Number of non-member queries for the measured rate (default: 1,000,000)
//	-mmap      Query through a memory-mapped file instead of the heap copy (default: true)
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tamirms/commonpass/bloom"
	"github.com/tamirms/commonpass/internal/normalize"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// randomPasswords returns n distinct-with-overwhelming-probability strings.
// Members and probes use different lengths so the two sets never overlap.
func randomPasswords(n, byteLen int) []string {
	out := make([]string, n)
	buf := make([]byte, byteLen)
	for i := range out {
		_, _ = rand.Read(buf) // crypto/rand.Read error is fatal system issue; ignore for benchmark
		out[i] = hex.EncodeToString(buf)
	}
	return out
}

func main() {
	keysFlag := flag.Int("keys", 1_000_000, "number of members")
	fprFlag := flag.Float64("fpr", 0.01, "target false-positive rate")
	probesFlag := flag.Int("probes", 1_000_000, "number of non-member queries")
	mmapFlag := flag.Bool("mmap", true, "query a memory-mapped file (false = heap copy)")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (build phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (build phase only)")
	flag.Parse()

	numKeys := *keysFlag
	if numKeys <= 0 || *probesFlag <= 0 {
		fmt.Println("-keys and -probes must be positive")
		return
	}

	fmt.Println("Generating passwords...")
	members := randomPasswords(numKeys, 8)
	probes := randomPasswords(*probesFlag, 9)

	fmt.Println("Normalizing passwords...")
	normStart := time.Now()
	for i := range members {
		members[i] = normalize.String(members[i])
	}
	normDuration := time.Since(normStart)

	params, err := bloom.OptimalParams(int64(numKeys), *fprFlag)
	if err != nil {
		fmt.Printf("OptimalParams failed: %v\n", err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	filterPath := filepath.Join(tmpDir, "bench.bf")

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling for peak memory (both heap and RSS).
	// Uses runtime/metrics instead of ReadMemStats to avoid stop-the-world pauses
	// that distort CPU profiles.
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
				rss := getMaxRSS()
				for {
					old := peakRSS.Load()
					if rss <= old || peakRSS.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	fmt.Printf("Building filter (m=%d, k=%d)...\n", params.BitSize, params.HashCount)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	buildStart := time.Now()
	filter, err := bloom.NewWithParams(params)
	if err == nil {
		for _, pw := range members {
			filter.Add(pw)
		}
	}
	buildDuration := time.Since(buildStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC() // Get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	close(done)

	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	if final.Alloc > peakAlloc.Load() {
		peakAlloc.Store(final.Alloc)
	}
	finalRSS := getMaxRSS()
	if finalRSS > peakRSS.Load() {
		peakRSS.Store(finalRSS)
	}

	peakHeapMem := peakAlloc.Load() - baseline.Alloc
	peakRSSMem := peakRSS.Load() - baselineRSS

	if err != nil {
		fmt.Printf("Build failed: %v\n", err)
		return
	}

	encodeStart := time.Now()
	out, err := os.Create(filterPath)
	if err != nil {
		fmt.Printf("Create failed: %v\n", err)
		return
	}
	_, err = filter.WriteTo(out, bloom.Meta{ExpectedN: int64(numKeys), FPR: *fprFlag, Version: "bench", Tier: "full"})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Printf("Write failed: %v\n", err)
		return
	}
	encodeDuration := time.Since(encodeStart)

	info, _ := os.Stat(filterPath)
	fileSize := info.Size()
	bitsPerKey := float64(params.BitSize) / float64(numKeys)

	contains := filter.Contains
	if *mmapFlag {
		mapped, err := bloom.Open(filterPath)
		if err != nil {
			fmt.Printf("Open failed: %v\n", err)
			return
		}
		defer func() { _ = mapped.Close() }()
		contains = mapped.Filter().Contains
	}

	// Randomize query order so cache behavior does not follow insertion order.
	queryOrder := mrand.Perm(numKeys)

	fmt.Println("Warming up queries...")
	for i := 0; i < 10000; i++ {
		_ = contains(members[queryOrder[i%numKeys]])
	}

	fmt.Println("Benchmarking member queries...")
	numQueries := 100000
	falseNegatives := 0
	queryStart := time.Now()
	for i := 0; i < numQueries; i++ {
		if !contains(members[queryOrder[i%numKeys]]) {
			falseNegatives++
		}
	}
	queryDuration := time.Since(queryStart)
	avgLatency := float64(queryDuration.Nanoseconds()) / float64(numQueries) / 1000

	fmt.Println("Measuring false-positive rate...")
	falsePositives := 0
	probeStart := time.Now()
	for _, pw := range probes {
		if contains(pw) {
			falsePositives++
		}
	}
	probeDuration := time.Since(probeStart)
	measuredFPR := float64(falsePositives) / float64(len(probes))

	modeStr := "heap"
	if *mmapFlag {
		modeStr = "mmap"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦══════════════════╗\n")
	fmt.Printf("║ Mode: %-14s║ k: %-11d ║                  ║\n", modeStr, params.HashCount)
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Metric              ║ Value          ║ Target           ║\n")
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Bits per key        ║ %6.3f bits/key║ -                ║\n", bitsPerKey)
	fmt.Printf("║ File size           ║ %6.1f MB      ║ -                ║\n", float64(fileSize)/1_000_000)
	fmt.Printf("║ False-positive rate ║ %8.5f%%     ║ %8.5f%%        ║\n", measuredFPR*100, *fprFlag*100)
	fmt.Printf("║ False negatives     ║ %6d         ║ 0                ║\n", falseNegatives)
	fmt.Printf("║ Query latency       ║ %6.2f μs      ║ -                ║\n", avgLatency)
	fmt.Printf("║ Probe throughput    ║ %6.2f M/sec   ║ -                ║\n", float64(len(probes))/probeDuration.Seconds()/1_000_000)
	fmt.Printf("║ Normalize time      ║ %6.2f sec     ║ -                ║\n", normDuration.Seconds())
	fmt.Printf("║ Build time          ║ %6.2f sec     ║ -                ║\n", buildDuration.Seconds())
	fmt.Printf("║ Build throughput    ║ %6.2f M/sec   ║ -                ║\n", float64(numKeys)/buildDuration.Seconds()/1_000_000)
	fmt.Printf("║ Encode time         ║ %6.2f sec     ║ -                ║\n", encodeDuration.Seconds())
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB      ║ -                ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB      ║ -                ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╩══════════════════╝\n")
}
