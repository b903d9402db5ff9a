package cli

import (
	"context"
	"path"

	"github.com/dmitrijs2005/afterlog/internal/filex"
	"github.com/dmitrijs2005/afterlog/internal/netx"
)

// exportDir is where "export save" puts downloaded archives.
const exportDir = "exports"

// downloadFn is a test seam for netx.Download.
var downloadFn = netx.Download

// saveExport downloads the archive of the last export next to the working
// directory.
func (a *App) saveExport(ctx context.Context) {
	res := a.ctrl.Snapshot().Export
	if res == nil {
		return
	}
	data, err := downloadFn(ctx, res.URL)
	if err != nil {
		printlnFn("Download failed:", err)
		return
	}
	p, err := filex.SaveInSubdir(exportDir, path.Base(res.Key), data)
	if err != nil {
		printlnFn("Couldn’t save archive:", err)
		return
	}
	printlnFn("Archive saved to", p)
}
