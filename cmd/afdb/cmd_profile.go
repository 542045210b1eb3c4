package main

import (
	"errors"
	"fmt"
	"math/rand" //nolint:gosec // reproducible key selection
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/spf13/cobra"

	"github.com/meigma/afdb"
	"github.com/meigma/afdb/config"
	"github.com/meigma/afdb/store"
)

const (
	modeLookup    = "lookup"
	modeRead      = "read"
	modeStructure = "structure"
)

type profileConfig struct {
	mode       string
	store      string
	duration   time.Duration
	iterations int
	seed       int64
	cpuProfile string
	memProfile string
	traceFile  string
}

type profileStats struct {
	Mode       string        `json:"mode"`
	Ops        int           `json:"ops"`
	Bytes      int64         `json:"bytes"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	OpsPerSec  float64       `json:"ops_per_sec"`
	Throughput float64       `json:"mb_per_sec"`
}

//nolint:unused // sinks keep the compiler from eliding profiled work
var (
	sinkBytes []byte
	sinkPos   int
	sinkInt   int
)

func newProfileCmd(g *globals) *cobra.Command {
	pc := &profileConfig{}
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile random lookups, record reads or structure decoding",
		Long: `Profile drives one operation in a loop over randomly chosen keys of a
store and reports throughput. CPU, heap and execution traces can be written
for go tool pprof and go tool trace.

Modes:
  lookup     binary search only
  read       lookup plus pread of the record
  structure  full structure assembly (sequence, coordinates, pLDDT)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := g.runProfile(cmd, pc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
	f := cmd.Flags()
	f.StringVar(&pc.mode, "mode", modeLookup, "lookup, read or structure")
	f.StringVar(&pc.store, "store", config.StoreSequences, "store sampled for keys")
	f.DurationVar(&pc.duration, "duration", 5*time.Second, "run time when --iterations is 0")
	f.IntVar(&pc.iterations, "iterations", 0, "number of operations (overrides --duration)")
	f.Int64Var(&pc.seed, "seed", 1, "random seed")
	f.StringVar(&pc.cpuProfile, "cpuprofile", "", "write a CPU profile")
	f.StringVar(&pc.memProfile, "memprofile", "", "write a heap profile")
	f.StringVar(&pc.traceFile, "trace", "", "write an execution trace")
	return cmd
}

//nolint:gocognit // mode dispatch
func (g *globals) runProfile(cmd *cobra.Command, pc *profileConfig) (profileStats, error) {
	d, err := g.open(cmd)
	if err != nil {
		return profileStats{}, err
	}
	defer d.Close()

	s, ok := d.Store(pc.store)
	if !ok {
		return profileStats{}, fmt.Errorf("no store named %q in the layout", pc.store)
	}
	if s.Size() == 0 {
		return profileStats{}, errors.New("store is empty")
	}
	keys := sampleKeys(s, pc.seed)

	if pc.cpuProfile != "" {
		f, err := os.Create(pc.cpuProfile)
		if err != nil {
			return profileStats{}, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return profileStats{}, err
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}
	if pc.traceFile != "" {
		f, err := os.Create(pc.traceFile)
		if err != nil {
			return profileStats{}, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return profileStats{}, err
		}
		defer func() {
			trace.Stop()
			_ = f.Close()
		}()
	}

	stats, err := profileLoop(d, s, keys, pc)
	if err != nil {
		return profileStats{}, err
	}

	if pc.memProfile != "" {
		runtime.GC()
		f, err := os.Create(pc.memProfile)
		if err != nil {
			return profileStats{}, err
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return profileStats{}, err
		}
	}
	return stats, nil
}

func profileLoop(d *afdb.Data, s *store.Store, keys []string, pc *profileConfig) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64
	shouldContinue := func() bool {
		if pc.iterations > 0 {
			return ops < pc.iterations
		}
		return time.Since(start) < pc.duration
	}

	switch pc.mode {
	case modeLookup:
		for shouldContinue() {
			pos, _ := s.LookupString(keys[ops%len(keys)])
			sinkPos = pos
			ops++
		}
	case modeRead:
		for shouldContinue() {
			pos, found := s.LookupString(keys[ops%len(keys)])
			if !found {
				return profileStats{}, fmt.Errorf("sampled key %q not found", keys[ops%len(keys)])
			}
			b, err := s.Read(pos)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = b
			byteCount += int64(len(b))
			ops++
		}
	case modeStructure:
		for shouldContinue() {
			st, err := d.Structure(keys[ops%len(keys)])
			if err != nil {
				return profileStats{}, err
			}
			sinkInt = len(st.Coordinates)
			byteCount += int64(len(st.Coordinates) * 4)
			ops++
		}
	default:
		return profileStats{}, fmt.Errorf("unknown mode %q", pc.mode)
	}

	elapsed := time.Since(start)
	stats := profileStats{Mode: pc.mode, Ops: ops, Bytes: byteCount, Elapsed: elapsed}
	if secs := elapsed.Seconds(); secs > 0 {
		stats.OpsPerSec = float64(ops) / secs
		stats.Throughput = float64(byteCount) / (1024 * 1024) / secs
	}
	return stats, nil
}

// sampleKeys returns up to 4096 keys of s in random order.
func sampleKeys(s *store.Store, seed int64) []string {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible key selection
	n := min(s.Size(), 4096)
	keys := make([]string, n)
	for i := range keys {
		keys[i] = s.KeyAt(rng.Intn(s.Size())).String()
	}
	return keys
}
