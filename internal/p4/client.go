package p4

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/Zuo-Peng/p4-changelist-report/internal/parse"
)

// TimeLayout is the revision-range timestamp format p4 expects.
const TimeLayout = "2006/01/02:15:04:05"

type Options struct {
	Command string        // p4 binary plus global flags, e.g. "p4 -u alice"
	Charset string        // "" = output is utf-8
	Timeout time.Duration // per command, 0 = none
	Runner  Runner        // nil = ExecRunner
	Logger  *zap.Logger   // nil = no-op
}

// Client runs p4 commands. A failed command is logged and treated as empty
// output, so callers see "no changes" rather than an error.
type Client struct {
	argv    []string
	charset encoding.Encoding
	timeout time.Duration
	runner  Runner
	log     *zap.Logger
}

func New(opts Options) (*Client, error) {
	command := opts.Command
	if command == "" {
		command = "p4"
	}
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("split p4 command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, errors.New("p4 command is empty")
	}

	c := &Client{
		argv:    argv,
		timeout: opts.Timeout,
		runner:  opts.Runner,
		log:     opts.Logger,
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, fmt.Errorf("charset %q: %w", opts.Charset, err)
		}
		c.charset = enc
	}
	return c, nil
}

// Binary is the p4 executable name.
func (c *Client) Binary() string {
	return c.argv[0]
}

// Changes lists submitted change numbers for depot in [since, until].
// since and until use TimeLayout.
func (c *Client) Changes(ctx context.Context, depot, since, until string) []string {
	out := c.run(ctx, "changes", fmt.Sprintf("%s@%s,%s", depot, since, until))
	return parse.Changes(out)
}

// Describe returns the raw `p4 describe -s` text for a change, or "" when the
// command failed.
func (c *Client) Describe(ctx context.Context, change string) string {
	return c.run(ctx, "describe", "-s", change)
}

// Info runs `p4 info` and reports failures instead of swallowing them.
func (c *Client) Info(ctx context.Context) (string, error) {
	return c.exec(ctx, "info")
}

func (c *Client) run(ctx context.Context, args ...string) string {
	out, err := c.exec(ctx, args...)
	if err != nil {
		fields := []zap.Field{zap.String("cmd", c.commandLine(args)), zap.Error(err)}
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			fields = append(fields, zap.Int("exit_code", cmdErr.ExitCode), zap.String("stderr", cmdErr.Stderr))
		}
		c.log.Error("p4 command failed", fields...)
		return ""
	}
	return out
}

func (c *Client) exec(ctx context.Context, args ...string) (string, error) {
	line := c.commandLine(args)
	c.log.Info("run command", zap.String("cmd", line))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	full := append(append([]string{}, c.argv[1:]...), args...)
	raw, err := c.runner.Run(ctx, c.argv[0], full...)
	if err != nil {
		return "", err
	}

	out, err := c.decode(raw)
	if err != nil {
		return "", fmt.Errorf("decode output of %s: %w", line, err)
	}
	c.log.Debug("command output", zap.String("cmd", line), zap.String("stdout", out))
	return out, nil
}

func (c *Client) decode(raw []byte) (string, error) {
	if c.charset == nil {
		return string(raw), nil
	}
	// decoders are stateful, so one per call
	b, err := c.charset.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Client) commandLine(args []string) string {
	return shellquote.Join(append(append([]string{}, c.argv...), args...)...)
}

// Window formats [now-days, now] as p4 revision-range timestamps.
func Window(now time.Time, days int) (since, until string) {
	return now.AddDate(0, 0, -days).Format(TimeLayout), now.Format(TimeLayout)
}

// NormalizeTime accepts TimeLayout, "2006/01/02", "2006-01-02" or
// "2006-01-02 15:04:05" and returns TimeLayout.
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "2006/01/02", "2006-01-02", "2006-01-02 15:04:05", "2006/01/02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized time %q (want YYYY/MM/DD:HH:MM:SS)", s)
}
