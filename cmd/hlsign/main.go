// Command hlsign prepares, signs, verifies and submits Hyperliquid exchange
// actions.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thrasher-corp/gct-hyperliquid/config"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"github.com/thrasher-corp/gct-hyperliquid/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout, hyperliquid.SystemClock{}).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runner holds the state shared by every command.
type runner struct {
	cfg     *config.Config
	clock   hyperliquid.Clock
	prompt  config.PassphraseFunc
	metrics *prometheus.Registry
}

func newApp(in io.Reader, out io.Writer, clock hyperliquid.Clock) *cli.App {
	r := &runner{clock: clock, prompt: promptPassphrase}
	formatFlag := func(def string) cli.Flag {
		return &cli.StringFlag{
			Name:  "format",
			Usage: "output template (text/template with sprig functions)",
			Value: def,
		}
	}
	actionFlag := &cli.StringFlag{
		Name:  "action",
		Usage: "wire action JSON file, - for stdin",
	}
	nonceFlag := &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "nonce in milliseconds, 0 uses the clock",
	}
	return &cli.App{
		Name:      "hlsign",
		Usage:     "sign, verify and submit Hyperliquid exchange actions",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config, defaults to ./hlsign.yaml",
				EnvVars: []string{"HLSIGN_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "print signing and HTTP metrics to stderr on exit",
			},
		},
		Before: r.load,
		After:  r.finish,
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "print the signer address",
				Flags:  []cli.Flag{formatFlag("{{ .Address }}")},
				Action: r.address,
			},
			{
				Name:   "prepare",
				Usage:  "bind a nonce and print the digest to sign",
				Flags:  []cli.Flag{withRequired(actionFlag), nonceFlag, formatFlag("{{ .Digest }}")},
				Action: r.prepare,
			},
			{
				Name:   "sign",
				Usage:  "sign an action and print the exchange request body",
				Flags:  []cli.Flag{withRequired(actionFlag), nonceFlag, formatFlag("{{ .Body }}")},
				Action: r.sign,
			},
			{
				Name:  "recover",
				Usage: "recover the signer address of an exchange request body",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "signed", Usage: "signed request JSON file, - for stdin", Required: true},
					formatFlag("{{ .Address }}"),
				},
				Action: r.recover,
			},
			{
				Name:  "send",
				Usage: "submit a signed request, or sign and submit an action",
				Flags: []cli.Flag{
					actionFlag,
					nonceFlag,
					&cli.StringFlag{Name: "signed", Usage: "signed request JSON file, - for stdin"},
					formatFlag(`{{ .Status }}{{ with .OrderID }} {{ . }}{{ end }}{{ with .Error }} {{ . }}{{ end }}`),
				},
				Action: r.send,
			},
		},
	}
}

func withRequired(f *cli.StringFlag) *cli.StringFlag {
	cp := *f
	cp.Required = true
	return &cp
}

func (r *runner) load(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := log.SetupGlobalLogger(&cfg.Logging); err != nil {
		return err
	}
	r.cfg = cfg
	if c.Bool("metrics") {
		if r.metrics, err = newMetricsRegistry(); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) finish(c *cli.Context) error {
	defer func() { _ = log.Sync() }()
	if r.metrics == nil {
		return nil
	}
	return writeMetrics(c.App.ErrWriter, r.metrics)
}

func (r *runner) now() time.Time {
	ms, err := r.clock.NowMilli()
	if err != nil {
		return time.Now()
	}
	return time.UnixMilli(int64(ms))
}
