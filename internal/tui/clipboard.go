package tui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

var errNoClipboard = errors.New("no clipboard command available")

// copyText copies text to the system clipboard.
func copyText(text string) error {
	cmd := detectClipboardCommand()
	if cmd == "" {
		return errNoClipboard
	}
	parts := strings.Fields(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, parts[0], parts[1:]...)
	c.Stdin = strings.NewReader(text)
	return c.Run()
}

// detectClipboardCommand returns the first clipboard tool found:
// wl-copy on Wayland, then xclip or xsel on X11.
func detectClipboardCommand() string {
	candidates := []string{
		"wl-copy",
		"xclip -selection clipboard",
		"xsel --clipboard --input",
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(strings.Fields(c)[0]); err == nil {
			return c
		}
	}
	return ""
}
