package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/config"
	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"github.com/spf13/cobra"
)

var pushFlags struct {
	endpoint string
	timeout  time.Duration
}

var pushCmd = &cobra.Command{
	Use:   "push [HEX]",
	Short: "Submit a hex-encoded raw transaction to the broadcaster.",
	Long: `Decodes a raw transaction given as hex, either as the argument or on ` +
		`standard input ("-" or no argument), and pushes it to the ` +
		`broadcaster's PULL endpoint as a single message.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readRawTransaction(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		if pushFlags.endpoint != "" {
			cfg.PushEndpoint = pushFlags.endpoint
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), pushFlags.timeout)
		defer cancel()

		p := transport.NewPusher(ctx, cfg.PushEndpoint, cfg.DialRetry, logger)
		defer p.Close()
		if err := p.Dial(); err != nil {
			return err
		}
		if err := p.PushRawTransaction(raw); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pushed %d bytes to %s\n", len(raw), cfg.PushEndpoint)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
	fl := pushCmd.Flags()
	fl.StringVar(&pushFlags.endpoint, "endpoint", "", "broadcaster `ENDPOINT` to push to (default "+config.Default().PushEndpoint+")")
	fl.DurationVar(&pushFlags.timeout, "timeout", 30*time.Second, "give up if the broadcaster cannot be reached in this time")
}

// readRawTransaction takes the hex from args[0], or from stdin when there
// is no argument or it is "-". Surrounding whitespace is ignored.
func readRawTransaction(args []string, stdin io.Reader) ([]byte, error) {
	var text string
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	} else {
		text = args[0]
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("no transaction given")
	}
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode transaction hex: %w", err)
	}
	return raw, nil
}
