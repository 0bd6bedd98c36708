package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const unixListing = "total 16\r\n" +
	"drwxr-xr-x    2 ftp      ftp          4096 Mar 03  2019 pub\r\n" +
	"-rw-r--r--    1 ftp      ftp           170 Mar 03  2019 README\r\n" +
	"-rw-------    1 ftp      ftp            12 Mar 03  2019 .hidden\r\n" +
	"lrwxrwxrwx    1 ftp      ftp             6 Mar 03  2019 latest -> README\r\n"

func runFtpls(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_StdinJSON(t *testing.T) {
	code, stdout, stderr := runFtpls(t, unixListing, "-format", "json", "-")
	require.Equal(t, 0, code, stderr)

	var got []outputEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 3)

	assert.Equal(t, "pub", got[0].Name)
	assert.Equal(t, "dir", got[0].Type)
	assert.Equal(t, "755", got[0].Permissions)
	assert.Equal(t, "README", got[1].Name)
	assert.Equal(t, int64(170), got[1].Size)
	assert.Equal(t, "2019-03-03T00:00:00Z", got[1].ModTime)
	assert.Equal(t, "README", got[2].Link)
}

func TestRun_StdinYAML(t *testing.T) {
	code, stdout, stderr := runFtpls(t, unixListing, "-format", "yaml", "-all", "-")
	require.Equal(t, 0, code, stderr)

	var got []outputEntry
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 4)
	assert.Equal(t, ".hidden", got[2].Name)
}

func TestRun_Table(t *testing.T) {
	code, stdout, stderr := runFtpls(t, unixListing, "-")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "TYPE"))
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, stdout, "latest -> README")
	assert.NotContains(t, stdout, ".hidden")
	assert.NotContains(t, stdout, "\033[", "no color when stdout is not a terminal")
}

func TestRun_MLSDFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listing.txt")
	body := "type=cdir;modify=20240101000000; .\r\n" +
		"type=file;size=5;modify=20240102030405;unique=801U1; a.txt\r\n" +
		"type=OS.unix=symlink;unique=801U1; b.txt\r\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	code, stdout, stderr := runFtpls(t, "", "-format", "json", path)
	require.Equal(t, 0, code, stderr)

	var got []outputEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "link", got[1].Type)
	assert.Equal(t, "a.txt", got[1].Link)
}

func TestRun_Charset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	body := "-rw-r--r-- 1 ftp ftp 5 Mar 03 2019 caf\xe9.txt\r\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	code, stdout, stderr := runFtpls(t, "", "-format", "json", "-charset", "iso-8859-1", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "café.txt")
}

func TestRun_Unrecognized(t *testing.T) {
	code, stdout, stderr := runFtpls(t, "%%% not a listing %%%\n", "-")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Enable debug logging")
	assert.Contains(t, stderr, `last listing line: "%%% not a listing %%%"`)
}

func TestRun_EmptyListing(t *testing.T) {
	code, stdout, stderr := runFtpls(t, "total 0\r\n", "-format", "json", "-")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, "[]", stdout)
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", nil, "Usage: ftpls"},
		{"two sources", []string{"a", "b"}, "Usage: ftpls"},
		{"unknown flag", []string{"-bogus", "-"}, "bogus"},
		{"unknown format", []string{"-format", "xml", "-"}, `unknown format "xml"`},
		{"unknown charset", []string{"-charset", "klingon", "-"}, `unknown charset "klingon"`},
		{"missing config", []string{"-config", "/nonexistent/ftpls.yaml", "-"}, "reading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runFtpls(t, unixListing, tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_MissingFile(t *testing.T) {
	code, _, stderr := runFtpls(t, "", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "reading listing")
}

func TestRun_ConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ftpls.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\nall: true\n"), 0o644))

	code, stdout, stderr := runFtpls(t, unixListing, "-config", cfgPath, "-")
	require.Equal(t, 0, code, stderr)
	var got []outputEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got, 4)

	// Flags override the file.
	code, stdout, stderr = runFtpls(t, unixListing, "-config", cfgPath, "-format", "yaml", "-all=false", "-")
	require.Equal(t, 0, code, stderr)
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got, 3)
}

func TestRun_Remote(t *testing.T) {
	addr := serveOneListing(t, unixListing)

	code, stdout, stderr := runFtpls(t, "", "-format", "json", "-debug", "ftp://"+addr+"/pub")
	require.Equal(t, 0, code, stderr)

	var got []outputEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got, 3)
	assert.Contains(t, stderr, "CWD /pub")
	assert.Contains(t, stderr, "ftp listing")
}

// serveOneListing runs a minimal FTP server that answers one LIST with body.
func serveOneListing(t *testing.T, body string) string {
	t.Helper()
	ctrl, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	data, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, dataPort, _ := net.SplitHostPort(data.Addr().String())

	done := make(chan struct{})
	t.Cleanup(func() {
		ctrl.Close()
		data.Close()
		<-done
	})

	go func() {
		defer close(done)
		conn, err := ctrl.Accept()
		if err != nil {
			return
		}
		c := textproto.NewConn(conn)
		defer c.Close()

		_ = c.PrintfLine("220 ready")
		for {
			line, err := c.ReadLine()
			if err != nil {
				return
			}
			cmd, _, _ := strings.Cut(line, " ")
			switch strings.ToUpper(cmd) {
			case "USER":
				_ = c.PrintfLine("331 password please")
			case "PASS":
				_ = c.PrintfLine("230 logged in")
			case "CWD":
				_ = c.PrintfLine("250 ok")
			case "TYPE":
				_ = c.PrintfLine("200 ok")
			case "EPSV":
				_ = c.PrintfLine("%s", fmt.Sprintf("229 Entering Extended Passive Mode (|||%s|)", dataPort))
			case "LIST":
				_ = c.PrintfLine("150 listing")
				if d, err := data.Accept(); err == nil {
					_, _ = d.Write([]byte(body))
					d.Close()
				}
				_ = c.PrintfLine("226 done")
			case "QUIT":
				_ = c.PrintfLine("221 bye")
				return
			default:
				_ = c.PrintfLine("502 not implemented")
			}
		}
	}()

	return ctrl.Addr().String()
}
