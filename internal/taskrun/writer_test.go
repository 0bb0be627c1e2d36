package taskrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWriter_PreallocatesToFinalLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	w, err := openFileWriter(path, 1024)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 1024, info.Size())

	require.NoError(t, w.WriteAt([]byte("hello"), 10))
	require.NoError(t, w.Finish())

	info, err = os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 1024, info.Size())
}

func TestFileWriter_ConcurrentDisjointWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	w, err := openFileWriter(path, 8)
	require.NoError(t, err)

	done := make(chan struct{}, 2)
	go func() {
		_ = w.WriteAt([]byte("AAAA"), 0)
		done <- struct{}{}
	}()
	go func() {
		_ = w.WriteAt([]byte("BBBB"), 4)
		done <- struct{}{}
	}()
	<-done
	<-done
	require.NoError(t, w.Finish())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "AAAABBBB", string(got))
}

func TestFileWriter_Abandon_KeepsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	w, err := openFileWriter(path, 16)
	require.NoError(t, err)
	require.NoError(t, w.WriteAt([]byte("partial"), 0))
	w.Abandon()

	_, err = os.Stat(path)
	require.NoError(t, err)
}
