package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/passvault/internal/filex"
	"github.com/dmitrijs2005/passvault/internal/netx"
)

// exportDir is created under the working directory for downloaded exports.
const exportDir = "exports"

// downloadExport saves the export behind url and returns the file path.
// It is a seam for tests.
var downloadExport = func(ctx context.Context, url string, timeout time.Duration) (string, error) {
	dir, err := filex.EnsureSubDir(exportDir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("passvault-%s.json", time.Now().UTC().Format("20060102T150405Z")))
	f, err := filex.CreatePrivate(path)
	if err != nil {
		return "", err
	}

	_, err = netx.DownloadPresignedURL(ctx, &http.Client{Timeout: timeout}, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Export asks the server for a vault export, prints its download link and
// optionally saves it locally.
func (a *App) Export(ctx context.Context) error {
	exp, err := a.client.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Export ready until %s:\n%s\n", exp.ExpiresAt.Local().Format("15:04"), exp.URL)

	save, err := confirm(a.reader, "Download it now?", a.out)
	if err != nil || !save {
		return err
	}

	var timeout time.Duration
	if a.config != nil {
		timeout = a.config.RequestTimeout
	}
	path, err := downloadExport(ctx, exp.URL, timeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}
