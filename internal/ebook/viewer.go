// Package ebook serves the public preview of the gated e-book and resolves
// download links issued to recorded leads.
package ebook

import (
	"fmt"
	"sync"

	"github.com/maestriajurisp/leads-api/pkg/logger"
	"go.uber.org/zap"
)

// DefaultPDFJSVersion is used when no viewer version is configured
const DefaultPDFJSVersion = "4.8.69"

const workerURLFormat = "https://unpkg.com/pdfjs-dist@%s/build/pdf.worker.min.mjs"

var (
	viewerOnce      sync.Once
	viewerWorkerURL string
)

// InitViewer sets the process-wide PDF viewer worker location. Only the first
// call has an effect; it returns the active worker URL either way.
func InitViewer(version string) string {
	viewerOnce.Do(func() {
		if version == "" {
			version = DefaultPDFJSVersion
		}
		viewerWorkerURL = fmt.Sprintf(workerURLFormat, version)
		logger.Info("PDF viewer configured", zap.String("worker_url", viewerWorkerURL))
	})
	return viewerWorkerURL
}

// WorkerURL returns the configured worker location, initializing it with the
// default version if nothing did so yet.
func WorkerURL() string {
	return InitViewer("")
}
