package dlog

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Archiver moves the current log files of Dir into a dated subdirectory and
// truncates the originals. Scheduled through ARCHIVE_CRON, see logger.go.
type Archiver struct {
	Dir string
}

func (a *Archiver) Process() {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	archiveDir := filepath.Join(a.Dir, yesterday)
	base := archiveDir
	counter := 1
	err := os.Mkdir(archiveDir, 0o755)
	for os.IsExist(err) {
		archiveDir = base + "-" + strconv.Itoa(counter)
		counter++
		err = os.Mkdir(archiveDir, 0o755)
	}
	if err != nil {
		Log.Error("Failed to create archive directory", "dir", archiveDir, "err", err)
		return
	}

	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		Log.Error("Failed to read log directory", "dir", a.Dir, "err", err)
		return
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		src := filepath.Join(a.Dir, entry.Name())
		dst := filepath.Join(archiveDir, entry.Name())
		written, err := copyFile(dst, src)
		if err != nil {
			Log.Error("Failed to archive log", "file", entry.Name(), "err", err)
			continue
		}
		if err := os.Truncate(src, 0); err != nil {
			Log.Error("Failed to truncate log", "file", entry.Name(), "err", err)
			continue
		}
		Log.Info("Archived log", "file", entry.Name(), "written", written)
	}
}

func copyFile(dst, src string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	return io.Copy(out, in)
}
