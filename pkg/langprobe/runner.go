package langprobe

import (
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/bitfield/script"
)

const wallClockTimeout = 5 * time.Minute

// defaultTestCommand returns the conventional test invocation for a
// detected language. Tokenised as argv (no shell involved) unless the
// caller overrides it with a command containing shell operators.
var defaultTestCommand = map[Language][]string{
	LanguagePython: {"pytest", "--tb=short"},
	LanguageJS:     {"npm", "test"},
	LanguageTS:     {"npm", "test"},
	LanguageGo:     {"go", "test", "./..."},
	LanguageRust:   {"cargo", "test"},
	LanguageJava:   {"mvn", "test"},
	LanguageRuby:   {"bundle", "exec", "rspec"},
	LanguageCSharp: {"dotnet", "test"},
}

// shellOperators are the characters/sequences whose presence in a command
// string forces the shell fallback path rather than tokenised argv
// execution, per spec.md §4.9.
var shellOperators = []string{";", "&&", "||", "|", "`", "$(", ">", "<", ">>"}

func needsShell(command string) bool {
	for _, op := range shellOperators {
		if strings.Contains(command, op) {
			return true
		}
	}
	return false
}

// RunResult is the raw outcome of executing a test command.
type RunResult struct {
	Command  string
	UsedShell bool
	Output   string
	Err      error
	TimedOut bool
}

// Run executes command in dir. If command contains a shell operator, it
// logs a warning, sets UsedShell on the result and executes through
// "sh -c"; otherwise it runs as tokenised argv via bitfield/script,
// matching the pack's established run-a-command-capture-its-output idiom.
func Run(ctx context.Context, dir, command string) RunResult {
	ctx, cancel := context.WithTimeout(ctx, wallClockTimeout)
	defer cancel()

	if needsShell(command) {
		slog.Warn("langprobe: command contains shell operators, running through sh -c", "command", command)
		return runShell(ctx, dir, command)
	}
	return runArgv(ctx, dir, command)
}

func runArgv(ctx context.Context, dir, command string) RunResult {
	p := script.Exec(command)
	if dir != "" {
		p = p.WithDir(dir)
	}
	out, err := p.String()
	return RunResult{
		Command:   command,
		UsedShell: false,
		Output:    out,
		Err:       classifyExecErr(ctx, err),
		TimedOut:  ctx.Err() == context.DeadlineExceeded,
	}
}

func runShell(ctx context.Context, dir, command string) RunResult {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return RunResult{
		Command:   command,
		UsedShell: true,
		Output:    string(out),
		Err:       classifyExecErr(ctx, err),
		TimedOut:  ctx.Err() == context.DeadlineExceeded,
	}
}

func classifyExecErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return context.DeadlineExceeded
	}
	return err
}

// DefaultCommand returns the conventional test command for lang, or nil
// if lang has no known default (caller must supply one explicitly).
func DefaultCommand(lang Language) []string {
	cmd, ok := defaultTestCommand[lang]
	if !ok {
		return nil
	}
	return append([]string(nil), cmd...)
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes terminal color codes before regex parsing, since test
// runners commonly colorize output even when piped.
func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
