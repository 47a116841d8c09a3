package buildinfo

import "runtime"

// Set with -ldflags "-X pdpdispatch/internal/buildinfo.Version=..." at release time.
var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    return map[string]string{
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
        "go":      runtime.Version(),
    }
}

// String is the one-line form logged at startup.
func String() string {
    s := Version
    if Commit != "" { s += " (" + Commit + ")" }
    return s + " " + runtime.Version()
}
