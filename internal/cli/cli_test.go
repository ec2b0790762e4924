package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewsawatzky/filelist/internal/config"
	"github.com/matthewsawatzky/filelist/internal/listing"
)

type cliEnv struct {
	cfgPath string
	dataDir string
	root    string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, ".config"))

	rootDir := filepath.Join(base, "files")
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "sub"), 0o755))
	for name, content := range map[string]string{
		"a.txt":     "a",
		"b.log":     "bb",
		"sub/c.txt": "ccc",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(rootDir, filepath.FromSlash(name)), []byte(content), 0o644))
	}
	root := filepath.ToSlash(rootDir) + "/"

	cfgPath := filepath.Join(base, "filelist.yaml")
	yaml := "port: 7340\nlog_level: info\npaths: |\n  " + root + "\n  A> docs\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))
	return cliEnv{cfgPath: cfgPath, dataDir: filepath.Join(base, "data"), root: root}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e cliEnv) runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(VersionInfo{Version: "test"})
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.cfgPath, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestListJSON(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "ls", "--json", "--flat", "docs/*.txt&recursive=1")
	require.NoError(t, err)

	var entries []listing.FileEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.txt", "sub/c.txt"}, names)
}

func TestListText(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "ls", env.root+"*&style=olist")
	require.NoError(t, err)
	assert.Contains(t, out, "1. a.txt")
	assert.Contains(t, out, "2. b.log")
	assert.Contains(t, out, "3. sub")
	assert.NotContains(t, out, "\x1b[")
}

func TestListNotAllowed(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "ls", "/etc/*")
	require.Error(t, err)
	assert.Contains(t, out, "[n/a: path not allowed]")
}

func TestResolveCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "resolve", "docs/sub")
	require.NoError(t, err)
	assert.Contains(t, out, env.root+"sub/")
	assert.Contains(t, out, "docs/")

	_, err = env.run(t, "resolve", "/etc")
	assert.Error(t, err)
}

func TestPathsCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "paths")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], env.root)
	assert.Contains(t, lines[1], "docs/")
	assert.Contains(t, lines[1], "/file?root=")
}

func TestPasswdGenerateAndClear(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.run(t, "passwd", "--generate", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "username: alice")

	cfg, err := config.LoadOrDefault(env.cfgPath, env.dataDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cfg.PasswordHash, "$argon2id$"))
	assert.Equal(t, "alice", cfg.Username)
	assert.NotEmpty(t, cfg.Paths)

	_, err = env.run(t, "passwd", "--clear")
	require.NoError(t, err)
	cfg, err = config.LoadOrDefault(env.cfgPath, env.dataDir)
	require.NoError(t, err)
	assert.Empty(t, cfg.PasswordHash)
}

func TestPasswdPrompted(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.runWithInput(t, "correct horse\nwrong horse\n", "passwd")
	require.ErrorContains(t, err, "do not match")

	out, err := env.runWithInput(t, "correct horse\ncorrect horse\n", "passwd")
	require.NoError(t, err)
	assert.Contains(t, out, "password set for filelist")
	assert.NotContains(t, out, "correct horse\n")
}

func TestInitWritesConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.cfgPath = filepath.Join(t.TempDir(), "fresh.yaml")
	input := strings.Join([]string{
		"",           // data dir
		"",           // pages dir
		"0.0.0.0",    // bind
		"not-a-port", // rejected
		"8081",
		"files/",
		env.root,
		"A> docs",
		"",
		"txt,log",
		"sort=mtime&order=desc",
		"yes",
		"",
		"long enough",
		"long enough",
	}, "\n") + "\n"

	out, err := env.runWithInput(t, input, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Please enter a positive integer.")
	assert.Contains(t, out, "Config saved to "+env.cfgPath)

	cfg, err := config.LoadOrDefault(env.cfgPath, env.dataDir)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Bind)
	assert.Equal(t, "/files", cfg.BasePath)
	assert.Equal(t, env.root+"\nA> docs", cfg.Paths)
	assert.Equal(t, "txt,log", cfg.Extensions)
	assert.Equal(t, "sort=mtime&order=desc", cfg.Defaults)
	assert.Equal(t, "filelist", cfg.Username)
	assert.True(t, strings.HasPrefix(cfg.PasswordHash, "$argon2id$"))
	assert.DirExists(t, cfg.PagesDir)
}

func TestPrompterEndOfInput(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("maybe"), &out)
	_, err := p.yesNo("Continue", false)
	assert.Error(t, err)

	p = newPrompter(strings.NewReader("maybe\n"), &out)
	_, err = p.yesNo("Continue", false)
	assert.ErrorContains(t, err, `"maybe"`)

	p = newPrompter(strings.NewReader("abc\n"), &out)
	_, err = p.positiveInt("Port", 80)
	assert.Error(t, err)

	p = newPrompter(strings.NewReader("abc\n9000"), &out)
	port, err := p.positiveInt("Port", 80)
	require.NoError(t, err)
	assert.Equal(t, 9000, port)

	p = newPrompter(strings.NewReader(""), &out)
	port, err = p.positiveInt("Port", 80)
	require.NoError(t, err)
	assert.Equal(t, 80, port)

	p = newPrompter(strings.NewReader(""), &out)
	ok, err := p.yesNo("Continue", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "keep", p.lines("keep"))
	assert.Equal(t, "def", p.text("Name", "def"))
}

func TestAuditWithoutDatabase(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "audit", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audit database")
}

func TestAppendRoots(t *testing.T) {
	got := appendRoots("/srv/a/\nA> a\n", []string{"/srv/b", " "})
	assert.Equal(t, "/srv/a/\nA> a\n/srv/b/", filepath.ToSlash(got))
	assert.Equal(t, "", appendRoots("", nil))
}

func TestDownloadBase(t *testing.T) {
	assert.Equal(t, "/file", downloadBase(config.Config{BasePath: "/"}))
	assert.Equal(t, "/wiki/file", downloadBase(config.Config{BasePath: "/wiki/"}))
}

func TestLanURL(t *testing.T) {
	urls := []string{"http://127.0.0.1:7340/", "http://192.168.1.4:7340/", "http://localhost:7340/"}
	assert.Equal(t, "http://192.168.1.4:7340/", lanURL(urls))
	assert.Equal(t, "http://127.0.0.1:7340/", lanURL(urls[:1]))
}
