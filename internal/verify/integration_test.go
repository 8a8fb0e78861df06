//go:build integration

package verify

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/runner"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeProgram(t *testing.T, root, name, manifest, mainSrc string) *corpus.Fixture {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, corpus.ManifestName), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(mainSrc), 0644))
	fx, err := corpus.LoadFixture(dir)
	require.NoError(t, err)
	return fx
}

func requireGoTool(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go binary not on PATH")
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	requireGoTool(t)
	root := t.TempDir()

	good := writeProgram(t, root, "greet", `name: greet
cases:
  - name: default
    expect:
      exit: success
      stdout:
        - "Value: 1"
`, `package main

import "fmt"

func main() {
	fmt.Println("Value: 1")
}
`)

	bad := writeProgram(t, root, "liar", `name: liar
cases:
  - name: default
    expect:
      exit: success
`, `package main

func main() {
	panic("Intentional panic for testing!")
}
`)

	v := New(runner.New(nil), nil)
	rep := v.Verify(context.Background(), root, []*corpus.Fixture{good, bad})

	require.Equal(t, 1, rep.Passed)
	require.Equal(t, 1, rep.Failed)
	require.False(t, rep.Pass())
	require.Equal(t, StatusPassed, rep.Fixtures[0].Status())
	require.Equal(t, StatusFailed, rep.Fixtures[1].Status())
	require.Contains(t, rep.Fixtures[1].Cases[0].Problems[0], "want clean exit")
}

func TestVerifyOutOfBoundsContract(t *testing.T) {
	requireGoTool(t)
	root := t.TempDir()

	fx := writeProgram(t, root, "oob", `name: oob
defects:
  - kind: out-of-bounds
cases:
  - name: default
    expect:
      exit: abort
      no_stdout: true
      panic_contains: "index out of range [10] with length 3"
`, `package main

import "fmt"

func main() {
	values := []int32{1, 2, 3}
	fmt.Println("Value:", values[10])
}
`)

	v := New(runner.New(nil), nil)
	rep := v.Verify(context.Background(), root, []*corpus.Fixture{fx})

	require.True(t, rep.Pass(), "problems: %v", rep.Fixtures[0].Cases[0].Problems)
	require.Equal(t, 1, rep.Passed)
	require.Equal(t, 2, rep.Fixtures[0].Cases[0].ExitCode)
}
