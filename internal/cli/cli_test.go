package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/events/jaer"
	"github.com/banshee-data/eventvision/internal/events/nmnist"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

// writeRecording writes a small N-MNIST file: four events, one overflow
// record, then two more events.
func writeRecording(t *testing.T, dir, name string) string {
	t.Helper()
	var data []byte
	var err error
	for _, ev := range []events.Event{
		{X: 1, Y: 1, Polarity: events.Off, Timestamp: 0},
		{X: 1, Y: 1, Polarity: events.On, Timestamp: 500},
		{X: 5, Y: 2, Polarity: events.On, Timestamp: 900},
		{X: 5, Y: 2, Polarity: events.On, Timestamp: 950},
	} {
		data, err = nmnist.AppendRecord(data, ev)
		require.NoError(t, err)
	}
	data = nmnist.AppendOverflow(data)
	for _, ev := range []events.Event{
		{X: 2, Y: 3, Polarity: events.Off, Timestamp: 100},
		{X: 9, Y: 0, Polarity: events.On, Timestamp: 200},
	} {
		data, err = nmnist.AppendRecord(data, ev)
		require.NoError(t, err)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	monitoring.SetLogger(nil)
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "eventvision", cmd.Use)

	for _, name := range []string{"info", "export", "render", "stats", "catalog"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, name := range []string{"config", "verbose", "width", "height"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "eventvision version dev")
}

func TestPipelineFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"export", "render", "stats"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{"sort", "roi", "normalize", "refractory"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
}

func TestInfo(t *testing.T) {
	path := writeRecording(t, t.TempDir(), "00001.bin")

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "records:    7 (1 overflow)")
	assert.Contains(t, out, "frame:      10x4")
	assert.Contains(t, out, "events:     6 (4 on, 2 off)")
	assert.Contains(t, out, "span:       0..8392 us")
}

func TestInfo_ForcedDims(t *testing.T) {
	path := writeRecording(t, t.TempDir(), "00001.bin")

	out, err := run(t, "--width", "34", "--height", "34", "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "frame:      34x34")

	_, err = run(t, "--width", "4", "--height", "4", "info", path)
	assert.ErrorIs(t, err, events.ErrFormat)
}

func TestInfo_MissingFile(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "nope.bin"))
	assert.ErrorIs(t, err, events.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "00001.bin")
	outPath := filepath.Join(dir, "out.aedat")

	out, err := run(t, "export", "--sort", "--roi", "0,0,6,3", path, outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "4 events")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	header, err := (&jaer.Encoder{Comments: []string{"source 00001.bin"}}).Header()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), jaer.VERSION_TAG+jaer.LINE_END))
	assert.Contains(t, string(data), "# source 00001.bin\r\n")
	assert.Len(t, data, len(header)+4*8)
}

func TestExport_Refractory(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "00001.bin")

	out, err := run(t, "export", "--refractory", "100", path, filepath.Join(dir, "a.aedat"))
	require.NoError(t, err)
	// The second event at (5,2) is 50us after the first.
	assert.Contains(t, out, "5 events")

	_, err = run(t, "export", "--roi", "1,2", path, filepath.Join(dir, "b.aedat"))
	assert.ErrorContains(t, err, "invalid ROI")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "00001.bin")
	frames := filepath.Join(dir, "frames")

	out, err := run(t, "render", "--mode", "td", path, frames)
	require.NoError(t, err)
	// The whole recording fits in one default 24ms window.
	assert.Contains(t, out, "1 td frames")

	entries, err := os.ReadDir(frames)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"td_000000.png"}, names)

	_, err = run(t, "render", "--mode", "rgb", path, frames)
	assert.ErrorContains(t, err, "unknown render mode")
}

func TestRender_EMWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "00001.bin")
	cfgPath := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("frame_length_us: 1000\nmin_display: 0s\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "render", "-m", "em", "--paced", path, filepath.Join(dir, "em"))
	require.NoError(t, err)
	// Spans 0..8392 at a 1001us stride: every window is emitted.
	assert.Contains(t, out, "9 em frames")
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "00001.bin")
	report := filepath.Join(dir, "report.html")

	out, err := run(t, "stats", "--window", "1000", path, report)
	require.NoError(t, err)
	assert.Contains(t, out, "6 events")

	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "00001.bin")
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	a := writeRecording(t, dir, "Train/3/00001.bin")
	b := writeRecording(t, dir, "Train/7/00002.bin")
	db := filepath.Join(dir, "catalog.db")

	out, err := run(t, "catalog", "--db", db, "add", a, b)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	out, err = run(t, "catalog", "--db", db, "list", "--label", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "00002.bin")
	assert.NotContains(t, out, "00001.bin")
	assert.Contains(t, out, "10x4")

	id := strings.Fields(lines[0])[0]
	_, err = run(t, "catalog", "--db", db, "rm", id)
	require.NoError(t, err)

	out, err = run(t, "catalog", "--db", db, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "00001.bin")
	assert.Contains(t, out, "00002.bin")
}
