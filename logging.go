package haystack_solr

import (
	"strings"
	"sync"

	"pkt.systems/pslog"
)

// SubsystemKey tags log entries with the part of the recipe that wrote them.
const SubsystemKey = pslog.TrustedString("sys")

var (
	loggerMu sync.RWMutex
	baseLog  pslog.Logger
)

// SetLogger replaces the package logger used by code that has no logger of its own
// (message expansion, translator loading). Passing nil disables logging.
func SetLogger(logger pslog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	baseLog = logger
}

func packageLogger() pslog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return ensureLogger(baseLog)
}

func ensureLogger(logger pslog.Logger) pslog.Logger {
	if logger == nil {
		return pslog.NoopLogger()
	}
	return logger
}

// withSubsystem attaches a dot separated subsystem tag, e.g. "recipe.solrconfig".
func withSubsystem(logger pslog.Logger, parts ...string) pslog.Logger {
	logger = ensureLogger(logger)
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.Trim(part, ". "); part != "" {
			filtered = append(filtered, part)
		}
	}
	if len(filtered) == 0 {
		return logger
	}
	return logger.With(SubsystemKey, strings.Join(filtered, "."))
}
