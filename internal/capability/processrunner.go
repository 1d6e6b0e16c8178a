package capability

import "os/exec"

// ProcessRunner launches an external emulator or document viewer as a
// detached, fire-and-forget process. The export pipeline uses this after
// collating a file set; the spawned process's lifetime is independent of
// the pipeline that launched it.
type ProcessRunner interface {
	Launch(executable string, args []string, workDir string) error
}

// osProcessRunner is the production ProcessRunner, backed by os/exec.
type osProcessRunner struct{}

// NewOSProcessRunner returns a ProcessRunner that starts real subprocesses.
func NewOSProcessRunner() ProcessRunner { return osProcessRunner{} }

func (osProcessRunner) Launch(executable string, args []string, workDir string) error {
	cmd := exec.Command(executable, args...)
	cmd.Dir = workDir

	// Fire-and-forget: Start, never Wait. The emulator/viewer outlives this
	// process; waiting on it would block the CLI for the session duration.
	return cmd.Start()
}
