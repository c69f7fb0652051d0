package files

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Archive zips a directory into a temporary file so it can be sent as
// a single transfer. The caller runs cleanup once the archive is no
// longer needed.
func Archive(dir string) (FileInfo, func(), error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return FileInfo{}, nil, fmt.Errorf("%s: failed to get absolute path: %w", dir, err)
	}

	tmp, err := os.CreateTemp("", "p2pshare-*.zip")
	if err != nil {
		return FileInfo{}, nil, fmt.Errorf("create archive: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if err := writeArchive(tmp, absDir); err != nil {
		tmp.Close()
		cleanup()
		return FileInfo{}, nil, fmt.Errorf("archive %s: %w", dir, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return FileInfo{}, nil, fmt.Errorf("archive %s: %w", dir, err)
	}

	stat, err := os.Stat(tmp.Name())
	if err != nil {
		cleanup()
		return FileInfo{}, nil, err
	}

	return FileInfo{
		Path: tmp.Name(),
		Name: filepath.Base(absDir) + ".zip",
		Size: stat.Size(),
		Type: "application/zip",
	}, cleanup, nil
}

func writeArchive(w io.Writer, dir string) error {
	archive := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		// Forward slashes keep the archive portable.
		header.Name = filepath.ToSlash(relPath)
		if d.IsDir() {
			header.Name += "/"
		} else {
			header.Method = zip.Deflate
		}

		fw, err := archive.CreateHeader(header)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(fw, f)
		return err
	})
	if err != nil {
		archive.Close()
		return err
	}

	return archive.Close()
}
