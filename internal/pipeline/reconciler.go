package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"filepipe/internal/process"
)

// reconcileLoop periodically rescans the input directory, covering
// notifications the watcher missed and files present before startup.
func (p *Pipeline) reconcileLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.scan()
		}
	}
}

// scan lists the input directory and submits every regular file that is
// not already mid-flight. Hidden files and in-progress temp files from
// atomic writers are ignored.
func (p *Pipeline) scan() {
	entries, err := os.ReadDir(p.cfg.InputDir)
	if err != nil {
		log.Error().Err(err).Str("dir", p.cfg.InputDir).Msg("reconciliation scan failed")
		return
	}
	submitted := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		path := filepath.Join(p.cfg.InputDir, entry.Name())
		if p.submit(process.NewFileTask(path, process.SourceReconciler)) {
			submitted++
		}
		if p.ctx.Err() != nil {
			return
		}
	}
	if submitted > 0 {
		log.Info().Int("submitted", submitted).Msg("reconciliation scan queued files")
	}
}
