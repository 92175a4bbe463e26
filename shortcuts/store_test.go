package shortcuts

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/grovetools/moonsync/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// builder writes binary KeyValues by hand so fixtures do not depend on the encoder.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) cstr(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
}

func (b *builder) open(key string) *builder {
	b.buf.WriteByte(0x00)
	b.cstr(key)
	return b
}

func (b *builder) str(key, value string) *builder {
	b.buf.WriteByte(0x01)
	b.cstr(key)
	b.cstr(value)
	return b
}

func (b *builder) i32(key string, value uint32) *builder {
	b.buf.WriteByte(0x02)
	b.cstr(key)
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], value)
	b.buf.Write(v[:])
	return b
}

func (b *builder) end() *builder {
	b.buf.WriteByte(0x08)
	return b
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}

// steamFixture mimics a store written by Steam: mixed key casing, an unknown
// key, and one entry already owned by moonsync.
func steamFixture() []byte {
	b := &builder{}
	b.open("shortcuts")

	b.open("0").
		i32("appid", 0x8a1b2c3d).
		str("AppName", "Heroic").
		str("Exe", `"/usr/bin/heroic"`).
		str("StartDir", `"/usr/bin/"`).
		str("icon", "").
		str("ShortcutPath", "/usr/share/applications/heroic.desktop").
		str("LaunchOptions", "").
		i32("IsHidden", 0).
		i32("AllowDesktopConfig", 1).
		i32("AllowOverlay", 1).
		i32("openvr", 0).
		i32("Devkit", 0).
		str("DevkitGameID", "").
		i32("DevkitOverrideAppID", 0).
		i32("LastPlayTime", 1700000000).
		str("FlatpakAppID", "").
		str("sortas", "heroic launcher").
		open("tags").str("0", "favorite").str("1", "Launchers").end().
		end()

	b.open("1").
		i32("appid", 0x80000001).
		str("appname", "Halo").
		str("exe", "/usr/bin/moonlight").
		str("StartDir", "").
		str("icon", "/home/u/halo.png").
		str("ShortcutPath", "").
		str("LaunchOptions", `stream 10.0.0.2 "Halo"`).
		i32("IsHidden", 0).
		i32("AllowDesktopConfig", 1).
		i32("AllowOverlay", 1).
		i32("OpenVR", 0).
		i32("Devkit", 0).
		str("DevkitGameID", "").
		i32("LastPlayTime", 0).
		open("tags").str("0", "moonlight").end().
		end()

	b.end()
	b.end()
	return b.bytes()
}

var ignoreSource = cmpopts.IgnoreUnexported(Shortcut{})

func TestDecodeFixture(t *testing.T) {
	store, err := Decode(steamFixture())
	require.NoError(t, err)
	require.Len(t, store, 2)

	heroic := store[0]
	assert.Equal(t, uint32(0x8a1b2c3d), heroic.AppID)
	assert.Equal(t, "Heroic", heroic.AppName)
	assert.Equal(t, `"/usr/bin/heroic"`, heroic.Exe)
	assert.Equal(t, "/usr/share/applications/heroic.desktop", heroic.ShortcutPath)
	assert.True(t, heroic.AllowDesktopConfig)
	assert.False(t, heroic.OpenVR)
	assert.Equal(t, uint32(1700000000), heroic.LastPlayTime)
	assert.Equal(t, []string{"favorite", "Launchers"}, heroic.Tags)
	assert.True(t, heroic.Decoded())

	halo := store[1]
	assert.Equal(t, "Halo", halo.AppName, "lowercase keys are recognised")
	assert.Equal(t, "/usr/bin/moonlight", halo.Exe)
	assert.True(t, halo.HasTag("moonlight"))
	assert.False(t, heroic.HasTag("moonlight"))
}

func TestEncodeUnmodifiedIsByteIdentical(t *testing.T) {
	in := steamFixture()
	store, err := Decode(in)
	require.NoError(t, err)

	out, err := Encode(store)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRoundTripLaw(t *testing.T) {
	store, err := Decode(steamFixture())
	require.NoError(t, err)

	data, err := Encode(store)
	require.NoError(t, err)
	again, err := Decode(data)
	require.NoError(t, err)

	if diff := cmp.Diff(store, again, ignoreSource); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeModifiedRecordKeepsUnknownKeys(t *testing.T) {
	store, err := Decode(steamFixture())
	require.NoError(t, err)

	store[0].AppName = "Heroic Games"
	store[0].IsHidden = true
	store[0].Tags = append(store[0].Tags, "new")

	data, err := Encode(store)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sortas", "unknown keys survive")

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Heroic Games", again[0].AppName)
	assert.True(t, again[0].IsHidden)
	assert.Equal(t, []string{"favorite", "Launchers", "new"}, again[0].Tags)
	assert.Equal(t, uint32(0x8a1b2c3d), again[0].AppID, "decoded app ids are never recomputed")
}

func TestEncodeAddsMissingFieldBeforeTags(t *testing.T) {
	store, err := Decode(steamFixture())
	require.NoError(t, err)

	store[1].FlatpakAppID = "com.moonlight_stream.Moonlight"
	data, err := Encode(store)
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "com.moonlight_stream.Moonlight", again[1].FlatpakAppID)
	assert.Equal(t, []string{"moonlight"}, again[1].Tags)

	n, err := again[1].toNode(1)
	require.NoError(t, err)
	assert.Equal(t, len(n.Children)-1, n.IndexOf("tags"), "tags stay last")
}

func TestEncodeNewShortcut(t *testing.T) {
	s := New("Desktop", "/usr/bin/moonlight", "", `stream host "Desktop"`)
	s.Tags = []string{"moonlight"}

	data, err := Encode(Store{s})
	require.NoError(t, err)

	store, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, store, 1)

	got := store[0]
	assert.Equal(t, AppIDFor("/usr/bin/moonlight", "Desktop"), got.AppID)
	assert.NotZero(t, got.AppID&0x80000000)
	assert.Equal(t, "Desktop", got.AppName)
	assert.Equal(t, `stream host "Desktop"`, got.LaunchOptions)
	assert.True(t, got.AllowDesktopConfig)
	assert.True(t, got.AllowOverlay)
	assert.Equal(t, []string{"moonlight"}, got.Tags)

	n, err := s.toNode(0)
	require.NoError(t, err)
	keys := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{
		"appid", "AppName", "Exe", "StartDir", "icon", "ShortcutPath", "LaunchOptions",
		"IsHidden", "AllowDesktopConfig", "AllowOverlay", "OpenVR", "Devkit",
		"DevkitGameID", "DevkitOverrideAppID", "LastPlayTime", "FlatpakAppID", "tags",
	}, keys)
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	s := New("Bad", "/opt/\xff/moonlight", "", "")
	_, err := Encode(Store{s})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIO))
	assert.Equal(t, errors.StepWrite, errors.GetStep(err))
}

func TestEncodeRejectsNulInTitle(t *testing.T) {
	s := New("Halo\x00MCC", "/usr/bin/moonlight", "", `stream host "Halo"`)
	_, err := Encode(Store{s})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIO))
	assert.Equal(t, errors.StepWrite, errors.GetStep(err))
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	store, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, store)

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", steamFixture()[:40]},
		{"wrong root", (&builder{}).open("games").end().end().bytes()},
		{"entry not a map", (&builder{}).open("shortcuts").str("0", "x").end().end().bytes()},
		{"string field with int", (&builder{}).open("shortcuts").open("0").i32("AppName", 3).end().end().end().bytes()},
		{"tags not a map", (&builder{}).open("shortcuts").open("0").str("tags", "x").end().end().end().bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeFormat), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, existed, err := Load(fs, "/steam/userdata/42/config/shortcuts.vdf")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Empty(t, store)
}

func TestLoadReportsPathOnFormatError(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/steam/shortcuts.vdf"
	require.NoError(t, afero.WriteFile(fs, path, []byte{0x00, 's'}, 0644))

	_, existed, err := Load(fs, path)
	require.Error(t, err)
	assert.True(t, existed)

	syncErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFormat, syncErr.Code)
	assert.Equal(t, path, syncErr.Details["path"])
}

func TestSaveCreatesDirectoryAndReplaces(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/steam/userdata/42/config/shortcuts.vdf"

	store, err := Decode(steamFixture())
	require.NoError(t, err)
	require.NoError(t, Save(fs, path, store))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, steamFixture(), data)

	require.NoError(t, Save(fs, path, store[:1]))
	loaded, existed, err := Load(fs, path)
	require.NoError(t, err)
	assert.True(t, existed)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Heroic", loaded[0].AppName)

	entries, err := afero.ReadDir(fs, "/steam/userdata/42/config")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestSaveFailsOnReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := Save(fs, "/steam/shortcuts.vdf", Store{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIO))
	assert.Equal(t, errors.StepWrite, errors.GetStep(err))
}
