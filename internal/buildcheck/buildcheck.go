// Package buildcheck builds the native-host bundle when its dist output is missing.
package buildcheck

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	filepathx "github.com/yargevad/filepathx"

	"sidepanel/internal/utils"
)

const DistDir = "dist"

// Runner executes the build command inside dir.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// ExecRunner runs commands as child processes, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

type Result struct {
	Built   bool
	DistDir string
}

// Check runs `npm run build` in projectDir unless projectDir/dist already
// holds at least one file.
func Check(ctx context.Context, projectDir string, runner Runner) (Result, error) {
	dist := filepath.Join(projectDir, DistDir)
	res := Result{DistDir: dist}

	if utils.DirectoryExists(dist) {
		hasFiles, err := containsFiles(dist)
		if err != nil {
			return res, err
		}
		if hasFiles {
			log.Printf("buildcheck: %s exists, skipping build", dist)
			return res, nil
		}
	}

	if runner == nil {
		runner = ExecRunner{}
	}
	log.Printf("buildcheck: %s not found, building project", dist)
	if err := runner.Run(ctx, projectDir, "npm", "run", "build"); err != nil {
		return res, fmt.Errorf("build failed: %w", err)
	}
	res.Built = true
	log.Printf("buildcheck: build completed")
	return res, nil
}

func containsFiles(dir string) (bool, error) {
	matches, err := filepathx.Glob(filepath.Join(dir, "**", "*"))
	if err != nil {
		return false, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, p := range matches {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !st.IsDir() {
			return true, nil
		}
	}
	return false, nil
}
