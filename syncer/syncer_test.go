package syncer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/shortcuts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moonlightExe = "/usr/bin/moonlight"

var defaultOpts = Options{
	SyncEnabled: true,
	Executable:  moonlightExe,
	Launch:      LaunchSpec{Verb: DefaultVerb, Address: "192.168.1.5"},
}

func row(title, icon string) []string {
	return []string{title, "1", "false", "false", "false", "false", icon}
}

func hostRows() [][]string {
	return [][]string{
		row("Desktop", "qrc:/res/no_app_image.png"),
		row("Halo", "file:///home/u/.cache/Moonlight/boxart/1.png"),
		row("Halo", "file:///home/u/.cache/Moonlight/boxart/2.png"),
	}
}

// decodedStore returns a store whose records went through the codec, the way
// the runner sees them.
func decodedStore(t *testing.T, records ...shortcuts.Shortcut) shortcuts.Store {
	t.Helper()
	data, err := shortcuts.Encode(shortcuts.Store(records))
	require.NoError(t, err)
	store, err := shortcuts.Decode(data)
	require.NoError(t, err)
	return store
}

func foreign(name string, tags ...string) shortcuts.Shortcut {
	s := shortcuts.New(name, "/usr/bin/"+name, "", "")
	s.Tags = tags
	return s
}

func owned(name string) shortcuts.Shortcut {
	s := shortcuts.New(name, moonlightExe, "", `stream 10.0.0.9 "`+name+`"`)
	s.Tags = []string{SentinelTag}
	return s
}

func titles(store shortcuts.Store) []string {
	var out []string
	for _, s := range store {
		out = append(out, s.AppName)
	}
	return out
}

func TestLaunchOptions(t *testing.T) {
	spec := LaunchSpec{Verb: "stream", Address: "192.168.1.5"}
	assert.Equal(t, `stream 192.168.1.5 "Halo"`, spec.Args("Halo"))
	assert.Equal(t, `stream 192.168.1.5 "Halo"`, LaunchSpec{Address: "192.168.1.5"}.Args("Halo"))
}

func TestNormalizeIcon(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"file url", "file:///home/u/icon.png", "/home/u/icon.png", false},
		{"placeholder", "qrc:/res/no_app_image.png", "", false},
		{"placeholder anywhere", "no_app_image", "", false},
		{"http url", "http://host/icon.png", "", true},
		{"bare path", "/home/u/icon.png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIcon(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaterialize(t *testing.T) {
	candidates, err := Materialize(hostRows(), defaultOpts)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	desktop := candidates[0]
	assert.Equal(t, "Desktop", desktop.AppName)
	assert.Equal(t, moonlightExe, desktop.Exe)
	assert.Equal(t, `stream 192.168.1.5 "Desktop"`, desktop.LaunchOptions)
	assert.Equal(t, "", desktop.Icon)
	assert.Equal(t, []string{SentinelTag}, desktop.Tags)
	assert.Empty(t, desktop.StartDir)
	assert.Empty(t, desktop.ShortcutPath)
	assert.Zero(t, desktop.AppID)

	assert.Equal(t, "/home/u/.cache/Moonlight/boxart/1.png", candidates[1].Icon)
	assert.Equal(t, []string{"Desktop", "Halo", "Halo"}, titles(candidates), "duplicate titles are kept")
}

func TestMaterializeArity(t *testing.T) {
	for _, n := range []int{6, 8} {
		rows := hostRows()
		bad := make([]string, n)
		bad[0] = "Broken"
		rows = append(rows[:1], append([][]string{bad}, rows[1:]...)...)

		candidates, err := Materialize(rows, defaultOpts)
		require.Error(t, err, "%d columns", n)
		assert.Nil(t, candidates)
		assert.True(t, errors.Is(err, errors.ErrCodeMalformedCandidate))

		syncErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, 1, syncErr.Details["row"])
		assert.Equal(t, n, syncErr.Details["columns"])
	}
}

func TestMaterializeRejectsUnknownIcon(t *testing.T) {
	_, err := Materialize([][]string{row("Halo", "https://example.com/halo.png")}, defaultOpts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedCandidate))
}

func TestSyncReplacesOwnedShortcuts(t *testing.T) {
	existing := decodedStore(t,
		foreign("Heroic", "favorite"),
		owned("Old Game"),
		foreign("Lutris"),
		owned("Desktop"),
	)

	result, err := Sync(existing, hostRows(), defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, []string{"Heroic", "Lutris", "Desktop", "Halo", "Halo"}, titles(result))
	assert.Len(t, result, 2+len(hostRows()))
	assert.Equal(t, existing[0].AppName, result[0].AppName)
	assert.Len(t, existing, 4, "input store is not modified")
}

func TestSyncNeverMergesForeignByTitle(t *testing.T) {
	existing := decodedStore(t, foreign("Halo"))

	result, err := Sync(existing, hostRows(), defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Halo", "Desktop", "Halo", "Halo"}, titles(result))
	assert.False(t, IsOwned(result[0]))
}

func TestSyncIsIdempotent(t *testing.T) {
	existing := decodedStore(t, foreign("Heroic"), owned("Stale"), foreign("Lutris"))

	first, err := Sync(existing, hostRows(), defaultOpts)
	require.NoError(t, err)
	reloaded := decodedStore(t, first...)

	second, err := Sync(reloaded, hostRows(), defaultOpts)
	require.NoError(t, err)

	structural := cmp.Options{
		cmpopts.IgnoreUnexported(shortcuts.Shortcut{}),
		cmpopts.IgnoreFields(shortcuts.Shortcut{}, "AppID"),
	}
	if diff := cmp.Diff(first, second, structural); diff != "" {
		t.Errorf("second sync differs (-first +second):\n%s", diff)
	}
	assert.Len(t, second, 2+len(hostRows()))
}

func TestSyncDisabledAccumulates(t *testing.T) {
	opts := defaultOpts
	opts.SyncEnabled = false

	initial := decodedStore(t, foreign("Heroic"), owned("Stale"))

	first, err := Sync(initial, hostRows(), opts)
	require.NoError(t, err)
	second, err := Sync(decodedStore(t, first...), hostRows(), opts)
	require.NoError(t, err)

	assert.Len(t, second, len(initial)+2*len(hostRows()))

	ownedCount := 0
	for _, s := range second {
		if IsOwned(s) {
			ownedCount++
		}
	}
	assert.Equal(t, 1+2*len(hostRows()), ownedCount)
}

func TestSyncPreservesForeignBytes(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		opts := defaultOpts
		opts.SyncEnabled = enabled

		existing := decodedStore(t, foreign("Heroic", "favorite"), owned("Stale"), foreign("Lutris"))
		before := encodeEach(t, FilterOwned(existing))

		result, err := Sync(existing, hostRows(), opts)
		require.NoError(t, err)

		var after [][]byte
		for _, s := range result {
			if !IsOwned(s) {
				after = append(after, encodeEach(t, shortcuts.Store{s})...)
			}
		}
		assert.Equal(t, before, after, "sync enabled=%v", enabled)
	}
}

// encodeEach encodes every shortcut as the single entry of its own store so
// that positional re-keying does not affect the comparison.
func encodeEach(t *testing.T, store shortcuts.Store) [][]byte {
	t.Helper()
	var out [][]byte
	for _, s := range store {
		data, err := shortcuts.Encode(shortcuts.Store{s})
		require.NoError(t, err)
		out = append(out, data)
	}
	return out
}

func TestSyncFailureIsAtomic(t *testing.T) {
	existing := decodedStore(t, foreign("Heroic"), owned("Stale"))
	rows := append(hostRows(), []string{"too", "short"})

	result, err := Sync(existing, rows, defaultOpts)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, []string{"Heroic", "Stale"}, titles(existing))
}
