package domain

// ExitCode is the process status reported by a silent run.
type ExitCode int

const (
	ExitSuccess           ExitCode = 0
	ExitFailure           ExitCode = 1
	ExitCanceled          ExitCode = 2
	ExitGpuNotExist       ExitCode = 3
	ExitSystemNotSupport  ExitCode = 4
	ExitMissingDependency ExitCode = 5
	ExitValidationFailed  ExitCode = 6
	ExitConfigError       ExitCode = 7
)

func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitFailure:
		return "failure"
	case ExitCanceled:
		return "canceled"
	case ExitGpuNotExist:
		return "gpu-not-exist"
	case ExitSystemNotSupport:
		return "system-not-support"
	case ExitMissingDependency:
		return "missing-dependency"
	case ExitValidationFailed:
		return "validation-failed"
	case ExitConfigError:
		return "config-error"
	}
	return "unknown"
}

// ParseExitCode resolves a configured exit code name.
func ParseExitCode(name string) (ExitCode, bool) {
	for c := ExitSuccess; c <= ExitConfigError; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return ExitFailure, false
}
