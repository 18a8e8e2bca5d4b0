package storage

import (
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/locator"
	"github.com/smilyorg/timeship/log"
	"github.com/smilyorg/timeship/snapshot"
)

// totalSizeLogger has no output attached, so the per-entry walk warnings
// logged through it are discarded.
var totalSizeLogger = log.New("storage")

// TotalSize sums the size of every regular file under l, recursively,
// without following symlinks. Grounded directly on
// original_source/api/internal/api/nodes.go's computeTotalSize, which
// uses fastwalk for the same reason: a bounded-fan-out parallel walk that
// tolerates per-entry errors instead of aborting the whole sum.
func (f *Facade) TotalSize(l locator.Locator) (int64, error) {
	gw, gwPath, release, err := f.resolve(l)
	if err != nil {
		return 0, err
	}
	defer release()

	target := filepath.Join(gw.Name(), gwPath)

	var total atomic.Int64

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			totalSizeLogger.Warn().WithField("path", path).WithError(err).Log("total_size walk entry failed")
			return nil
		}
		if d.IsDir() && d.Name() == snapshot.SidecarDir {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total.Add(info.Size())
			}
		}
		return nil
	})
	if walkErr != nil {
		return 0, apperr.Wrap(apperr.Internal, walkErr, "computing total size")
	}

	return total.Load(), nil
}
