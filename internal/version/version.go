package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version возвращает версию, проставляемую через -ldflags.
func Version() string { return version }

// String возвращает полную строку версии для логов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
