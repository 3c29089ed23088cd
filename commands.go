package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brainvoice/internal/config"
	"brainvoice/internal/realtime"
	"brainvoice/internal/security"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the session.update payload sent to the realtime backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			payload := realtime.NewSessionUpdate(app.registry.Definitions(), app.cfg.Session.ToolChoice)
			if err := writeIndented(out, payload); err != nil {
				return err
			}

			scripts := app.skills.List()
			if len(scripts) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCRIPT\tVERSION\tENABLED\tDESCRIPTION")
			for _, s := range scripts {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", s.Name, s.Version, s.Enabled, s.Description)
			}
			return tw.Flush()
		},
	}
}

func newSummariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summaries",
		Short: "Print stored conversation summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			records, err := app.store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no summaries stored")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %s\n", r.Timestamp.Local().Format("2006-01-02 15:04"), r.Text)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := configLoader()
			if err != nil {
				return err
			}
			if _, err := os.Stat(loader.FilePath()); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", loader.FilePath())
			}
			cfg := config.Defaults()
			cfg.Realtime.APIKey = config.KeyringPlaceholder
			if err := loader.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", loader.FilePath())
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

// secretNames maps the CLI names to key store entries.
var secretNames = map[string]string{
	"realtime":            secretRealtimeKey,
	"summarizer":          secretSummarizerKey,
	"fallback-summarizer": secretFallbackKey,
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store API keys in the OS keychain or encrypted vault",
		Long: "Keys stored here are used wherever the config file holds the \"[keyring]\" placeholder.\n" +
			"Names: realtime, summarizer, fallback-summarizer.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set NAME",
		Short: "Store a secret read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ks, err := secretTarget(args[0])
			if err != nil {
				return err
			}
			value, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := ks.Set(name, value); err != nil {
				return fmt.Errorf("store %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%s)\n", args[0], security.MaskKey(value))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ks, err := secretTarget(args[0])
			if err != nil {
				return err
			}
			if err := ks.Delete(name); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func configLoader() (*config.Loader, error) {
	if configPath != "" {
		return config.NewLoaderAt(configPath), nil
	}
	return config.NewLoader()
}

func secretTarget(arg string) (string, *security.KeyStore, error) {
	name, ok := secretNames[arg]
	if !ok {
		return "", nil, fmt.Errorf("unknown secret %q", arg)
	}
	loader, err := configLoader()
	if err != nil {
		return "", nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return "", nil, err
	}
	ks, err := security.NewKeyStore(cfg.Secrets.VaultDir, cfg.Secrets.MasterPassword)
	if err != nil {
		return "", nil, err
	}
	return name, ks, nil
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", errors.New("empty secret")
	}
	return value, nil
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
