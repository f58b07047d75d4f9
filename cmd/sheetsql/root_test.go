package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "sheetsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptions(t *testing.T) {
	path := writeConfig(t, `
headers: 1
raise: true
http_timeout: 5s
compression: gzip
extra_http_headers:
  x-team: finance
`)

	opts, err := loadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 1, opts.Headers)
	assert.True(t, opts.Raise)
	assert.Equal(t, 5*time.Second, opts.HTTPTimeout)

	config := opts.clientConfig()
	assert.Equal(t, "gzip", config.Compression)
	assert.Equal(t, map[string]string{"x-team": "finance"}, config.ExtraHTTPHeader)
	assert.Equal(t, 1, config.Headers)
}

func TestLoadOptionsErrors(t *testing.T) {
	_, err := loadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = loadOptions(writeConfig(t, "headers: [1"))
	require.Error(t, err)

	_, err = loadOptions(writeConfig(t, "headers: -1"))
	require.Error(t, err)

	opts, err := loadOptions("")
	require.NoError(t, err)
	assert.Equal(t, &options{}, opts)
}

func TestResolveOptionsFlagsOverrideConfig(t *testing.T) {
	path := writeConfig(t, "headers: 1\nraise: true\nsubject: someone@example.com\n")

	var resolved *options
	cmd := newRootCommand()
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		flags := &rootFlags{config: path}
		flags.headers, _ = cmd.Flags().GetInt("headers")
		flags.raise, _ = cmd.Flags().GetBool("raise")
		var err error
		resolved, err = resolveOptions(cmd, flags)
		return err
	}
	cmd.SetArgs([]string{"--headers", "2", "--raise=false"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 2, resolved.Headers)
	assert.False(t, resolved.Raise)
	assert.Equal(t, "someone@example.com", resolved.Subject)
}

func TestRootCommandExecute(t *testing.T) {
	server := newSheetServer(t)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--execute", fmt.Sprintf(`SELECT * FROM "%s"`, server.URL)})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "country      cnt\n---------  -----\nBR             1\nIN             2\n", out.String())
}

func TestRootCommandConsole(t *testing.T) {
	reader := &fakeReader{lines: []string{"SELECTSELECTSELECT"}}
	restore := openLineReader
	openLineReader = func(string) (lineReader, error) { return reader, nil }
	t.Cleanup(func() { openLineReader = restore })

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "invalid query: SELECTSELECTSELECT\nSee ya!\n", out.String())
	assert.True(t, reader.closed)

	reader = &fakeReader{lines: []string{"SELECTSELECTSELECT"}}
	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--raise"})
	require.Error(t, cmd.Execute())
}

func TestRootCommandRejectsBadFlags(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--headers", "-1"})
	require.Error(t, cmd.Execute())

	cmd = newRootCommand()
	cmd.SetArgs([]string{"unexpected"})
	require.Error(t, cmd.Execute())
}
