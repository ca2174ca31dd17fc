package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/keshy/CodeSense/output"
)

// graphvizTimeout bounds the external dot invocation; a hung layout run is
// treated as a failure, not waited on forever.
const graphvizTimeout = 60 * time.Second

// IsDotInstalled reports whether the graphviz dot executable is on PATH.
func IsDotInstalled() bool {
	if _, err := exec.LookPath("dot"); err == nil {
		return true
	}
	_, err := exec.LookPath("dot.exe")
	return err == nil
}

// GenerateImage runs graphviz over a .gv file to produce the final image.
// A non-zero exit is reported as a warning with the command to re-run for
// detail; the intermediate .gv file is always left behind.
func GenerateImage(ctx context.Context, gvPath, imagePath, format string, logger *output.Logger) error {
	start := time.Now()
	logger.Progress("Running graphviz to make the image...")

	ctx, cancel := context.WithTimeout(ctx, graphvizTimeout)
	defer cancel()

	out, err := os.Create(imagePath)
	if err != nil {
		return fmt.Errorf("could not create image file: %w", err)
	}
	defer out.Close()

	args := []string{"-T" + format, gvPath}
	cmd := exec.CommandContext(ctx, "dot", args...)
	cmd.Stdout = out
	if err := cmd.Run(); err != nil {
		logger.Warning("*** Graphviz returned non-zero exit code! "+
			"Try running %q for more detail ***", "dot "+strings.Join(args, " ")+" -v -O")
		return nil
	}
	logger.Progress("Graphviz finished in %.2f seconds.", time.Since(start).Seconds())
	return nil
}
