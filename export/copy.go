package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sbkohel/pdf-dedupe/dedupe"
)

// DistinctDirName is the name of the folder distinct files are copied to.
const DistinctDirName = "distinct_files"

// DefaultOutputDir returns the distinct_files folder next to folder.
func DefaultOutputDir(folder string) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", folder, err)
	}
	return filepath.Join(filepath.Dir(abs), DistinctDirName), nil
}

// CopyDistinct copies the first file of every group from folder into
// outDir, creating outDir when absent and replacing existing files. Each
// file is copied once. The copied names are returned in group order.
func CopyDistinct(folder string, groups []dedupe.Group, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	seen := make(map[string]bool, len(groups))
	var copied []string
	for _, g := range groups {
		name := g.Anchor()
		if name == "" || seen[name] {
			continue
		}
		if err := copyFile(filepath.Join(folder, name), filepath.Join(outDir, name)); err != nil {
			return copied, err
		}
		seen[name] = true
		copied = append(copied, name)
	}
	return copied, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	same, err := sameFile(in, dst)
	if err != nil {
		return err
	}
	if same {
		return nil
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to write %s: %w", dst, cerr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

// sameFile reports whether dst names the file already open as in.
func sameFile(in *os.File, dst string) (bool, error) {
	dstInfo, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", dst, err)
	}
	srcInfo, err := in.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", in.Name(), err)
	}
	return os.SameFile(srcInfo, dstInfo), nil
}
