package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"brainvoice/internal/security"
	"brainvoice/internal/tool"
)

const maxOutput = 10000

// ScriptTool runs an external command as a tool. Arguments arrive on
// stdin as JSON; stdout becomes {"output": ...}.
type ScriptTool struct {
	manifest Manifest
	dir      string
	timeout  time.Duration
	sandbox  bool
}

// NewScriptTool creates a ScriptTool from a manifest and its directory.
func NewScriptTool(manifest Manifest, dir string, defaultTimeoutSecs int, sandbox bool) *ScriptTool {
	secs := manifest.TimeoutSecs
	if secs <= 0 {
		secs = defaultTimeoutSecs
	}
	if secs <= 0 {
		secs = 10
	}
	return &ScriptTool{
		manifest: manifest,
		dir:      dir,
		timeout:  time.Duration(secs) * time.Second,
		sandbox:  sandbox,
	}
}

func (s *ScriptTool) Name() string { return "skill_" + s.manifest.Name }

func (s *ScriptTool) Description() string {
	return s.manifest.Description
}

func (s *ScriptTool) Parameters() json.RawMessage {
	if len(s.manifest.Parameters) > 0 {
		return s.manifest.Parameters
	}
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

func (s *ScriptTool) Execute(ctx context.Context, args json.RawMessage) (*tool.Result, error) {
	parts := splitCommand(s.manifest.Command)
	if len(parts) == 0 {
		return tool.ErrorResult("command is empty"), nil
	}
	if s.sandbox {
		if err := s.checkProgram(parts[0]); err != nil {
			return tool.ErrorResult("sandbox violation: " + err.Error()), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = s.dir
	cmd.WaitDelay = 2 * time.Second
	cmd.Stdin = bytes.NewReader(args)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return tool.ErrorResult(fmt.Sprintf("timed out after %s", s.timeout)), nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return tool.ErrorResult(truncate(msg)), nil
	}

	return tool.JSONResult(map[string]string{"output": truncate(strings.TrimSpace(stdout.String()))})
}

// checkProgram rejects absolute programs and relative ones that leave the tool directory.
func (s *ScriptTool) checkProgram(program string) error {
	if filepath.IsAbs(program) {
		return fmt.Errorf("absolute paths not allowed: %s", program)
	}
	if strings.Contains(program, "..") {
		return fmt.Errorf("path traversal not allowed: %s", program)
	}
	if strings.ContainsRune(program, filepath.Separator) && !security.IsPathSafe(filepath.Join(s.dir, program), s.dir) {
		return fmt.Errorf("program escapes tool directory: %s", program)
	}
	return nil
}

func truncate(s string) string {
	if len(s) > maxOutput {
		return s[:maxOutput] + "\n... (truncated)"
	}
	return s
}

// splitCommand splits a command string into program and arguments,
// respecting single and double quotes.
func splitCommand(cmd string) []string {
	var parts []string
	var current strings.Builder
	var quote rune
	for _, ch := range cmd {
		switch {
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case ch == ' ' && quote == 0:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
