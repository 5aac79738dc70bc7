package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// Browser opens URLs with the platform's default handler.
type Browser struct {
	logger *slog.Logger
	goos   string
	run    func(ctx context.Context, name string, args ...string) error
}

func NewBrowser(logger *slog.Logger) *Browser {
	return &Browser{logger: logger, goos: runtime.GOOS, run: run}
}

func (b *Browser) OpenURL(ctx context.Context, url string) error {
	name, args := openCommand(b.goos, url)
	b.logger.Debug("opening url", "url", url, "cmd", name)
	if err := b.run(ctx, name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, string(out))
	}
	return nil
}

// CopyToClipboard replaces the system clipboard contents with text.
func CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
