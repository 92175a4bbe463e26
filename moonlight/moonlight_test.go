package moonlight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/moonsync/command"
	"github.com/grovetools/moonsync/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listOutput = `Name, ID, HDR Support, App Collection Game, Hidden, Direct Launch, Boxart URL
Desktop,881448767,false,false,false,false,qrc:/res/no_app_image.png
"Halo, Master Chief",1093255277,true,false,false,false,file:///home/u/.cache/Moonlight/boxart/1093255277.png
`

// fakeExecutor re-executes the test binary so TestHelperProcess can play the
// part of Moonlight.
type fakeExecutor struct {
	mode     string
	path     string
	lookErr  error
	received [][]string
}

func (f *fakeExecutor) Command(name string, args ...string) *exec.Cmd {
	return f.CommandContext(context.Background(), name, args...)
}

func (f *fakeExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	f.received = append(f.received, append([]string{name}, args...))
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FAKE_MOONLIGHT_MODE="+f.mode)
	return cmd
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}
	return f.path, nil
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FAKE_MOONLIGHT_MODE") {
	case "list":
		fmt.Fprint(os.Stdout, listOutput)
	case "unreachable":
		fmt.Fprintln(os.Stderr, "Failed to connect to 192.168.1.5")
		fmt.Fprintln(os.Stderr, "Host unreachable")
		os.Exit(1)
	case "garbage":
		fmt.Fprint(os.Stdout, "Name,ID\n\"Halo\xfe\",1\n")
	case "hang":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newClient(exec *fakeExecutor, install Installation) *Client {
	return NewClient(command.NewSafeBuilderWithExecutor(exec), install, quietLogger())
}

func TestParseList(t *testing.T) {
	rows, err := ParseList([]byte(listOutput))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Desktop", rows[0][0])
	assert.Equal(t, "qrc:/res/no_app_image.png", rows[0][6])
	assert.Equal(t, "Halo, Master Chief", rows[1][0])
	assert.Len(t, rows[1], 7)
}

func TestParseListKeepsIrregularRows(t *testing.T) {
	rows, err := ParseList([]byte("h1,h2\na,b,c,d,e,f\na,b,c,d,e,f,g,h\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 6)
	assert.Len(t, rows[1], 8)
}

func TestParseListEmpty(t *testing.T) {
	rows, err := ParseList(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ParseList([]byte("Name, ID, HDR Support, App Collection Game, Hidden, Direct Launch, Boxart URL\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseListBareQuotes(t *testing.T) {
	rows, err := ParseList([]byte("header\nHalo \"MCC\",1,false,false,false,false,file:///x.png\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `Halo "MCC"`, rows[0][0])
	assert.Equal(t, "file:///x.png", rows[0][6])
}

func TestParseListInvalidUTF8(t *testing.T) {
	_, err := ParseList([]byte("header\nDesktop,1,false,false,false,false,x\nHalo\xff,2,false,false,false,false,y\n"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedCandidate, errors.GetCode(err))
	assert.Equal(t, errors.StepMaterialize, errors.GetStep(err))
}

func TestClientList(t *testing.T) {
	fake := &fakeExecutor{mode: "list"}
	client := newClient(fake, Installation{Executable: "/usr/bin/moonlight"})

	rows, err := client.List(context.Background(), "192.168.1.5")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	require.Len(t, fake.received, 1)
	assert.Equal(t, []string{"/usr/bin/moonlight", "list", "192.168.1.5", "--csv"}, fake.received[0])
}

func TestClientListFlatpak(t *testing.T) {
	fake := &fakeExecutor{mode: "list"}
	install := Installation{Executable: "/usr/bin/flatpak", FlatpakAppID: DefaultFlatpakAppID}
	client := newClient(fake, install)

	_, err := client.List(context.Background(), "gaming-pc")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/usr/bin/flatpak", "run", DefaultFlatpakAppID, "list", "gaming-pc", "--csv",
	}, fake.received[0])
}

func TestClientListFailures(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		host     string
		wantCode errors.ErrorCode
		wantMsg  string
	}{
		{"non-zero exit", "unreachable", "192.168.1.5", errors.ErrCodeCommandFailed, "Failed to connect"},
		{"invalid utf-8", "garbage", "192.168.1.5", errors.ErrCodeMalformedCandidate, "UTF-8"},
		{"invalid host", "list", "two words", errors.ErrCodeInvalidInput, "invalid host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(&fakeExecutor{mode: tt.mode}, Installation{Executable: "/usr/bin/moonlight"})
			_, err := client.List(context.Background(), tt.host)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClientListStderrStaysOnOneLine(t *testing.T) {
	client := newClient(&fakeExecutor{mode: "unreachable"}, Installation{Executable: "/usr/bin/moonlight"})
	_, err := client.List(context.Background(), "192.168.1.5")
	require.Error(t, err)

	syncErr, ok := errors.As(err)
	require.True(t, ok)
	assert.NotContains(t, syncErr.Message, "\n")
	assert.Contains(t, syncErr.Message, "Failed to connect to 192.168.1.5 Host unreachable")
	assert.Equal(t, "Failed to connect to 192.168.1.5\nHost unreachable", syncErr.Details["stderr"])
}

func TestClientListTimeout(t *testing.T) {
	fake := &fakeExecutor{mode: "hang"}
	builder := command.NewSafeBuilderWithExecutor(fake).WithDefaultTimeout(200 * time.Millisecond)
	client := NewClient(builder, Installation{Executable: "/usr/bin/moonlight"}, quietLogger())

	_, err := client.List(context.Background(), "192.168.1.5")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestLaunch(t *testing.T) {
	native := Installation{Executable: "/usr/bin/moonlight"}
	assert.Equal(t, `stream 192.168.1.5 "Halo"`, native.Launch("192.168.1.5").Args("Halo"))

	flatpak := Installation{Executable: "/usr/bin/flatpak", FlatpakAppID: DefaultFlatpakAppID}
	assert.Equal(t, `run com.moonlight_stream.Moonlight stream 192.168.1.5 "Halo"`, flatpak.Launch("192.168.1.5").Args("Halo"))
}

func TestLocate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/opt/moonlight/moonlight", []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, fs.MkdirAll("/opt/moonlight/lib", 0755))

	t.Run("explicit file", func(t *testing.T) {
		inst, err := Locate(fs, &fakeExecutor{}, "/opt/moonlight/moonlight", "")
		require.NoError(t, err)
		assert.Equal(t, "/opt/moonlight/moonlight", inst.Executable)
		assert.False(t, inst.Flatpak())
	})

	t.Run("explicit relative path is made absolute", func(t *testing.T) {
		_, err := Locate(fs, &fakeExecutor{}, "moonlight", "")
		require.Error(t, err)
		assert.Equal(t, errors.StepResolve, errors.GetStep(err))
		syncErr, ok := errors.As(err)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(syncErr.Details["command"].(string), "/"))
	})

	t.Run("explicit directory", func(t *testing.T) {
		_, err := Locate(fs, &fakeExecutor{}, "/opt/moonlight/lib", "")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeCommandNotFound, errors.GetCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Locate(fs, &fakeExecutor{}, "/nowhere/moonlight", "")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeCommandNotFound, errors.GetCode(err))
	})

	t.Run("path lookup", func(t *testing.T) {
		inst, err := Locate(fs, &fakeExecutor{path: "/usr/bin/moonlight"}, "", "")
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/moonlight", inst.Executable)
	})

	t.Run("path lookup fails", func(t *testing.T) {
		_, err := Locate(fs, &fakeExecutor{lookErr: exec.ErrNotFound}, "", "")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeCommandNotFound, errors.GetCode(err))
		assert.Equal(t, errors.StepResolve, errors.GetStep(err))
	})

	t.Run("flatpak", func(t *testing.T) {
		inst, err := Locate(fs, &fakeExecutor{path: "/usr/bin/flatpak"}, "", DefaultFlatpakAppID)
		require.NoError(t, err)
		assert.True(t, inst.Flatpak())
		assert.Equal(t, "/usr/bin/flatpak", inst.Executable)
	})
}
