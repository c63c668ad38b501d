package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"stylestudio/internal/middleware"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"styles", "apply", "migrate", "token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "styles", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStylesText(t *testing.T) {
	out, err := execute(t, "styles")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "styles", []byte(out))
}

func TestStylesStructured(t *testing.T) {
	out, err := execute(t, "styles", "--format", "json")
	require.NoError(t, err)
	var fromJSON []styleEntry
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))
	require.Len(t, fromJSON, 6)
	assert.Equal(t, "Pencil Sketch", fromJSON[0].Name)

	out, err = execute(t, "styles", "--format", "yaml")
	require.NoError(t, err)
	var fromYAML []styleEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.png")

	f, err := os.Create(input)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 12, 9))))
	require.NoError(t, f.Close())

	out, err := execute(t, "apply", "--style", "Oil Painting", "--format", "json", input, output)
	require.NoError(t, err)

	var res applyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Oil Painting", res.Style)
	assert.Equal(t, "native", res.Engine)

	rf, err := os.Open(output)
	require.NoError(t, err)
	defer rf.Close()
	cfg, err := png.DecodeConfig(rf)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Width)
	assert.Equal(t, 9, cfg.Height)
}

func TestApplyUnknownStyle(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "apply", "--style", "Pixel Art", filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApplyMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "apply", "--style", "Comic Style", filepath.Join(dir, "missing.png"), filepath.Join(dir, "b.png"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestMigrateSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	out, err := execute(t, "migrate", "--driver", "sqlite", "--sqlite-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite ledger schema is up to date")
	assert.FileExists(t, path)
}

func TestMigratePostgresNeedsURL(t *testing.T) {
	_, err := execute(t, "migrate", "--driver", "postgres", "--database-url", "")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestToken(t *testing.T) {
	out, err := execute(t, "token", "--sub", "owner-42", "--secret", "s3cret", "--locale", "id")
	require.NoError(t, err)

	claims, err := middleware.VerifyJWT("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "owner-42", claims.Sub)
	assert.Equal(t, "id", claims.Locale)
	assert.Equal(t, "stylectl", claims.Issuer)
}

func TestTokenNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "token", "--sub", "owner-42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
