package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kavirajk/kvs/cmd/util"
	"github.com/kavirajk/kvs/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for a kvs store",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for kvs stores")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Path: %s\n", util.GetStorePath())
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	setResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("set")

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				removeTestKey("set", k)
			})
		})

		b.ResetTimer()

		counter := 0
		for i := 0; i < b.N; i++ {
			err := kvStore.Set(getKey(counter), []byte("test"))
			if err != nil {
				log.Printf("(set) - error setting key: %v\n", err)
			}
			counter++
		}
	})

	results["set"] = setResult
	printResult("set", setResult)

	setLargeValueResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set-large") {
			return
		}

		// prepare large value
		largeValue := make([]byte, perfLargeValueSizeKB*1024)

		// prepare keys
		getKey, iter := getKeys("set-large")

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				removeTestKey("set-large", k)
			})
		})

		b.ResetTimer()

		counter := 0
		for i := 0; i < b.N; i++ {
			err := kvStore.Set(getKey(counter), largeValue)
			if err != nil {
				log.Printf("(set-large) - error setting key: %v", err)
			}
			counter++
		}
	})

	results["set-large"] = setLargeValueResult
	printResult("set-large", setLargeValueResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("get")

		// set keys
		iter(func(k string) {
			err := kvStore.Set(k, []byte("test"))
			if err != nil {
				log.Printf("(get) - error setting key: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				removeTestKey("get", k)
			})
		})

		b.ResetTimer()

		counter := 0
		for i := 0; i < b.N; i++ {
			_, _, err := kvStore.Get(getKey(counter))
			if err != nil {
				log.Printf("(get) - error getting key: %v\n", err)
			}
			counter++
		}
	})

	results["get"] = getResult
	printResult("get", getResult)

	removeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("rm") {
			return
		}

		// prepare keys
		getKey, _ := getKeys("rm")

		counter := 0
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			key := getKey(counter)
			if err := kvStore.Set(key, []byte("test")); err != nil {
				log.Printf("(rm) - error setting key: %v\n", err)
			}
			b.StartTimer()

			if err := kvStore.Remove(key); err != nil {
				log.Printf("(rm) - error removing key: %v\n", err)
			}
			counter++
		}
	})

	results["rm"] = removeResult
	printResult("rm", removeResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("mixed")

		// set keys
		iter(func(k string) {
			err := kvStore.Set(k, []byte("test"))
			if err != nil {
				log.Printf("(mixed) - error setting key: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				removeTestKey("mixed", k)
			})
		})

		b.ResetTimer()

		counter := 0
		for i := 0; i < b.N; i++ {
			key := getKey(counter)
			var err error
			switch counter % 4 {
			case 0, 1: // set
				err = kvStore.Set(key, []byte("test"))
			case 2: // get
				_, _, err = kvStore.Get(key)
			case 3: // rm
				err = kvStore.Remove(key)
				if store.HasCode(err, store.RetCKeyNotFound) {
					err = nil
				}
			}

			if err != nil {
				log.Printf("(mixed) - error performing operation (%d): %v\n", counter%4, err)
			}
			counter++
		}
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// removeTestKey deletes a benchmark key, tolerating keys the benchmark
// never wrote (small b.N runs touch only a prefix of the key set)
func removeTestKey(test, key string) {
	err := kvStore.Remove(key)
	if err != nil && !store.HasCode(err, store.RetCKeyNotFound) {
		log.Printf("(%s) - error removing key: %v\n", test, err)
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Path", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			util.GetStorePath(),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
