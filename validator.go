package wgpupp

import (
	"fmt"
	"os/exec"
	"strings"
)

// CommandValidator validates expanded shader text by running an
// external validator binary (for example a naga or tint frontend) with
// the text on stdin. A non-zero exit is reported together with the
// command's combined output.
type CommandValidator struct {
	Path string
	Args []string
}

func (v CommandValidator) Validate(source string) error {
	cmd := exec.Command(v.Path, v.Args...)
	cmd.Stdin = strings.NewReader(source)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(string(out)); msg != "" {
		return fmt.Errorf("%s: %s", v.Path, msg)
	}
	return fmt.Errorf("%s: %v", v.Path, err)
}
