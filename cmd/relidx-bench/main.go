// Command relidx-bench builds a synthetic relation and a B+Tree index over
// it, times the bulk build and a mix of point/range scans, and renders the
// scan latencies as a bar chart alongside a CSV of the raw samples.
package main

import (
	"encoding/binary"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"relidx/pkg/btree"
	"relidx/pkg/relation"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const recordSize int64 = 16
const keyOffset int32 = 0

func main() {
	numKeys := flag.Int64("keys", 100000, "number of keys to bulk-load")
	numScans := flag.Int("scans", 200, "number of point/range scans to sample")
	outDir := flag.String("out", "relidx-bench-out", "directory to write bench.csv and bench.png to")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0775); err != nil {
		fmt.Fprintln(os.Stderr, "relidx-bench:", err)
		os.Exit(1)
	}

	buildLat, pointLats, rangeLats, err := run(*numKeys, *numScans, *outDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "relidx-bench:", err)
		os.Exit(1)
	}

	fmt.Printf("bulk build: %d keys in %s (%s/key)\n", *numKeys, buildLat, buildLat/time.Duration(*numKeys))
	fmt.Printf("point scans: %d samples, mean %s\n", len(pointLats), mean(pointLats))
	fmt.Printf("range scans: %d samples, mean %s\n", len(rangeLats), mean(rangeLats))
}

func run(numKeys int64, numScans int, outDir string) (buildLat time.Duration, pointLats, rangeLats []time.Duration, err error) {
	dir, err := os.MkdirTemp("", "relidx-bench")
	if err != nil {
		return 0, nil, nil, err
	}
	defer os.RemoveAll(dir)

	relPath := filepath.Join(dir, "rel")
	rel, err := relation.Create(relPath, recordSize)
	if err != nil {
		return 0, nil, nil, err
	}
	for i := int64(0); i < numKeys; i++ {
		rec := make([]byte, recordSize)
		binary.LittleEndian.PutUint64(rec[keyOffset:], uint64(i))
		if _, err := rel.InsertRecord(rec); err != nil {
			rel.Close()
			return 0, nil, nil, err
		}
	}

	start := time.Now()
	index, _, err := btree.OpenIndex(relPath, keyOffset, btree.KeyTypeInt, rel, filepath.Join(dir, "build.log"))
	rel.Close()
	if err != nil {
		return 0, nil, nil, err
	}
	buildLat = time.Since(start)
	defer index.Close()

	r := rand.New(rand.NewSource(1))
	pointLats = make([]time.Duration, 0, numScans)
	for i := 0; i < numScans; i++ {
		k := r.Int63n(numKeys)
		t0 := time.Now()
		if err := index.StartScan(k, ">=", k, "<="); err != nil {
			return 0, nil, nil, err
		}
		if err := drain(index); err != nil {
			return 0, nil, nil, err
		}
		pointLats = append(pointLats, time.Since(t0))
	}

	rangeLats = make([]time.Duration, 0, numScans)
	for i := 0; i < numScans; i++ {
		lo := r.Int63n(numKeys)
		width := r.Int63n(numKeys/10 + 1)
		hi := lo + width
		if hi >= numKeys {
			hi = numKeys - 1
		}
		t0 := time.Now()
		if err := index.StartScan(lo, ">=", hi, "<="); err != nil {
			return 0, nil, nil, err
		}
		if err := drain(index); err != nil {
			return 0, nil, nil, err
		}
		rangeLats = append(rangeLats, time.Since(t0))
	}

	if err := writeCSV(filepath.Join(outDir, "bench.csv"), buildLat, pointLats, rangeLats); err != nil {
		return 0, nil, nil, err
	}
	if err := writeChart(filepath.Join(outDir, "bench.png"), pointLats, rangeLats); err != nil {
		return 0, nil, nil, err
	}

	return buildLat, pointLats, rangeLats, nil
}

func drain(index *btree.BTreeIndex) error {
	for {
		_, err := index.Next()
		if err == btree.ErrScanCompleted {
			break
		}
		if err != nil {
			return err
		}
	}
	return index.EndScan()
}

// writeCSV records every sample as one (operation, sample index,
// latency_ns) row, after a header row naming those columns.
func writeCSV(path string, buildLat time.Duration, pointLats, rangeLats []time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"operation", "sample", "latency_ns"})
	w.Write([]string{"bulk_build", "0", fmt.Sprintf("%d", buildLat.Nanoseconds())})
	for i, d := range pointLats {
		w.Write([]string{"point_scan", fmt.Sprintf("%d", i), fmt.Sprintf("%d", d.Nanoseconds())})
	}
	for i, d := range rangeLats {
		w.Write([]string{"range_scan", fmt.Sprintf("%d", i), fmt.Sprintf("%d", d.Nanoseconds())})
	}
	return w.Error()
}

// writeChart renders the mean point-scan and range-scan latencies as a bar
// chart, in microseconds, so a build-over-build regression is visible at a
// glance without opening the CSV.
func writeChart(path string, pointLats, rangeLats []time.Duration) error {
	p := plot.New()
	p.Title.Text = "relidx scan latency"
	p.Y.Label.Text = "mean latency (microseconds)"

	values := plotter.Values{
		float64(mean(pointLats).Microseconds()),
		float64(mean(rangeLats).Microseconds()),
	}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX("point scan", "range scan")

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func mean(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}
