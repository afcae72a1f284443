/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: archive.go
Description: Timestamped report archive. Each run is kept as its own YAML file under a
per-mode subdirectory so summaries of repeated runs can be compared side by side.
*/

package reporting

import (
	"fmt"
	"path/filepath"
)

// archiveTimeFormat sorts lexically in run order.
const archiveTimeFormat = "2006-01-02_15-04-05"

// ArchivePath names the archive file of a report: <dir>/<mode>/<started>_<mode>_<run id>.yaml
func ArchivePath(dir string, report *Report) string {
	filename := fmt.Sprintf("%s_%s_%s.yaml", report.StartedAt.Format(archiveTimeFormat), report.Mode, report.RunID)
	return filepath.Join(dir, report.Mode, filename)
}

// Archive writes the report under dir and returns the file path
func (g *Generator) Archive(dir string, report *Report) (string, error) {
	path := ArchivePath(dir, report)
	if err := g.Write(path, report); err != nil {
		return "", err
	}
	return path, nil
}
