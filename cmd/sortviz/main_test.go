// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sortviz/services/sortviz/compare"
	"github.com/AleutianAI/sortviz/services/sortviz/registry"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("SORTVIZ_CONFIG", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "none")

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--color", "never"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list", "--in-memory")
	require.NoError(t, err)

	for _, id := range []string{"merge_sort", "quick_sort", "selection_sort", "priority_queue_sort"} {
		assert.Contains(t, out, id)
	}
	assert.True(t, strings.HasPrefix(out, "ID"), out)
}

func TestInfo(t *testing.T) {
	out, _, err := execute(t, "info", "merge_sort", "--in-memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Merge Sort (merge_sort)")
	assert.Contains(t, out, "O(n log n)")

	_, _, err = execute(t, "info", "bogo_sort", "--in-memory")
	assert.ErrorIs(t, err, registry.ErrUnknownAlgorithm)
}

func TestRun(t *testing.T) {
	out, _, err := execute(t, "run", "selection_sort", "--data", "64,25,12,22,11", "--in-memory")
	require.NoError(t, err)

	assert.Contains(t, out, "=== Running Selection Sort ===")
	assert.Contains(t, out, "Input:  [64, 25, 12, 22, 11]")
	assert.Contains(t, out, "Sorted: [11, 12, 22, 25, 64]")
	assert.Contains(t, out, "ALGORITHM ANALYSIS REPORT")
	assert.NotContains(t, out, "Step 1:")
}

func TestRun_Steps(t *testing.T) {
	out, _, err := execute(t, "run", "selection_sort", "-d", "64,25,12,22,11", "--steps", "--max-steps", "2", "--in-memory")
	require.NoError(t, err)

	assert.Contains(t, out, "All Steps for Selection Sort")
	assert.Contains(t, out, "... and 30 more steps")
}

func TestRun_DefaultInput(t *testing.T) {
	out, _, err := execute(t, "run", "merge_sort", "--in-memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Sorted: [0, 11, 23, 34, 49, 58, 67, 76, 95, 100]")
}

func TestRun_JSON(t *testing.T) {
	out, _, err := execute(t, "run", "quick_sort", "--data", "3 1 2", "--json", "--in-memory")
	require.NoError(t, err)

	doc, err := traceio.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Quick Sort", doc.Summary.Algorithm)
	assert.Len(t, doc.Steps, 10)
	assert.Equal(t, []float64{1, 2, 3}, doc.FinalState())
}

func TestRun_Errors(t *testing.T) {
	_, _, err := execute(t, "run", "bogo_sort", "--in-memory")
	assert.ErrorIs(t, err, registry.ErrUnknownAlgorithm)

	_, _, err = execute(t, "run", "merge_sort", "--data", "1,x", "--in-memory")
	assert.Error(t, err)

	_, _, err = execute(t, "run", "merge_sort", "--data", "1", "--generate", "3", "--in-memory")
	assert.Error(t, err, "data sources are mutually exclusive")

	_, _, err = execute(t, "run", "--in-memory")
	assert.Error(t, err, "algorithm is required")
}

func TestRun_GenerateReproducible(t *testing.T) {
	args := []string{"run", "quick_sort", "--generate", "12", "--seed", "42", "--pattern", "duplicates", "--json", "--in-memory"}
	first, _, err := execute(t, args...)
	require.NoError(t, err)
	second, _, err := execute(t, args...)
	require.NoError(t, err)

	a, err := traceio.Unmarshal([]byte(first))
	require.NoError(t, err)
	b, err := traceio.Unmarshal([]byte(second))
	require.NoError(t, err)
	assert.Equal(t, a.Steps[0].ArrayState, b.Steps[0].ArrayState)
	assert.Len(t, a.Steps[0].ArrayState, 12)
}

func TestCompare(t *testing.T) {
	out, _, err := execute(t, "compare", "--data", "5,3,8,1,9,2", "--metric", "swaps", "--in-memory")
	require.NoError(t, err)

	assert.Contains(t, out, "Comparison over 6 elements")
	for _, name := range []string{"Merge Sort", "Quick Sort", "Selection Sort", "Priority Queue Sort"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Best by swaps: Merge Sort")
}

func TestCompare_Subset(t *testing.T) {
	out, _, err := execute(t, "compare", "quick_sort", "selection_sort", "-d", "3,1,2", "--in-memory")
	require.NoError(t, err)
	assert.NotContains(t, out, "Merge Sort")

	_, _, err = execute(t, "compare", "--metric", "speed", "--in-memory")
	assert.ErrorIs(t, err, compare.ErrInvalidMetric)
}

func TestGenerate(t *testing.T) {
	out, _, err := execute(t, "generate", "-n", "5", "--seed", "7", "--min", "1", "--max", "10", "--in-memory")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5)

	again, _, err := execute(t, "generate", "-n", "5", "--seed", "7", "--min", "1", "--max", "10", "--in-memory")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	path := filepath.Join(t.TempDir(), "numbers.txt")
	_, stderr, err := execute(t, "generate", "-n", "4", "--pattern", "sorted", "-o", path, "--in-memory")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote 4 numbers")

	out, _, err = execute(t, "run", "merge_sort", "--file", path, "--in-memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Sorted:")

	_, _, err = execute(t, "generate", "--pattern", "zigzag", "--in-memory")
	assert.Error(t, err)
}

func TestExportImportAndTraces(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "traces")
	file := filepath.Join(dir, "quick.json")

	_, stderr, err := execute(t, "export", "quick_sort", "--data", "3,1,2", "-o", file, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 10 steps")

	out, _, err := execute(t, "import", file, "--store", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Quick Sort")
	require.Contains(t, out, "Stored as ")
	id := strings.TrimSpace(out[strings.Index(out, "Stored as ")+len("Stored as "):])

	out, _, err = execute(t, "traces", "list", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Quick Sort")

	out, _, err = execute(t, "traces", "show", id, "--steps", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "All Steps for Quick Sort")

	out, _, err = execute(t, "export", "--trace", id, "--data-dir", dataDir)
	require.NoError(t, err)
	doc, err := traceio.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 10, doc.Summary.TotalSteps)

	out, _, err = execute(t, "traces", "delete", id, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	out, _, err = execute(t, "traces", "list", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No stored traces.")
}

func TestRun_Save(t *testing.T) {
	dataDir := t.TempDir()

	_, stderr, err := execute(t, "run", "merge_sort", "-d", "2,1", "--save", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved trace ")

	out, _, err := execute(t, "traces", "ls", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Merge Sort")
}

func TestImport_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "steps": "nope"}`), 0o600))

	_, _, err := execute(t, "import", path, "--in-memory")
	assert.ErrorIs(t, err, traceio.ErrMalformedTrace)
}

func TestExport_NeedsSource(t *testing.T) {
	_, _, err := execute(t, "export", "--in-memory")
	assert.Error(t, err)
}

func TestPlay_RequiresTTY(t *testing.T) {
	_, _, err := execute(t, "play", "merge_sort", "--in-memory")
	assert.ErrorIs(t, err, errNoTTY)

	_, _, err = execute(t, "interactive", "--in-memory")
	assert.ErrorIs(t, err, errNoTTY)
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor("always", &buf))
	assert.False(t, useColor("never", &buf))
	assert.False(t, useColor("auto", &buf), "a buffer is not a terminal")
}

// =============================================================================
// Interactive
// =============================================================================

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("SORTVIZ_CONFIG", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "none")

	a := &app{inMemory: true, color: "never"}
	cmd := &cobra.Command{}
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	require.NoError(t, a.setup(cmd))
	t.Cleanup(func() { _ = a.close(context.Background()) })
	return a
}

func TestRunSession(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, a.runSession(ctx, &out, session{action: actionList}))
	assert.Contains(t, out.String(), "Available algorithms (4):")
	assert.Contains(t, out.String(), "4. Priority Queue Sort (priority_queue_sort)")

	out.Reset()
	require.NoError(t, a.runSession(ctx, &out, session{
		action: actionRun, algorithm: "selection_sort", source: sourceManual, manual: "64, 25, 12, 22, 11",
	}))
	assert.Contains(t, out.String(), "Sorted: [11, 12, 22, 25, 64]")

	out.Reset()
	require.NoError(t, a.runSession(ctx, &out, session{action: actionCompare, source: sourceGenerate, size: "8"}))
	assert.Contains(t, out.String(), "Comparison over 8 elements")

	out.Reset()
	require.NoError(t, a.runSession(ctx, &out, session{action: actionRun, algorithm: "merge_sort", source: sourceSample, steps: true}))
	assert.Contains(t, out.String(), "All Steps for Merge Sort")

	assert.Error(t, a.runSession(ctx, &out, session{action: actionRun, algorithm: "merge_sort", source: sourceManual, manual: "a,b"}))
}

// =============================================================================
// Watch
// =============================================================================

func TestWatchFile(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "numbers.txt")
	require.NoError(t, os.WriteFile(path, []byte("3\n1\n2\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, a.log(), func() { calls.Add(1) })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("1\n"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("9\n8\n"), 0o600))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not stop")
	}
}

func TestWatch_RequiresFile(t *testing.T) {
	_, _, err := execute(t, "watch", "--in-memory")
	assert.Error(t, err)

	_, _, err = execute(t, "watch", "--file", filepath.Join(t.TempDir(), "missing.txt"), "--in-memory")
	assert.Error(t, err)
}

// =============================================================================
// Serve
// =============================================================================

func TestServe(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.openStorage())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/v1/sortviz/health")
	require.NoError(t, err)
	var health struct {
		Status  string `json:"status"`
		Storage bool   `json:"storage"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.Storage)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not shut down")
	}
}
