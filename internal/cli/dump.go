package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/apiguard/internal/bundle"
	"github.com/dshills/apiguard/internal/config"
	"github.com/dshills/apiguard/internal/deps"
	"github.com/dshills/apiguard/internal/digester"
	"github.com/dshills/apiguard/internal/logging"
)

type dumpFlags struct {
	abi         *negatableBool
	output      string
	framework   string
	keepWorkdir bool
}

func (a *app) dumpCmd() *cobra.Command {
	f := &dumpFlags{}
	cmd := &cobra.Command{
		Use:   "dump <sdk-archive>",
		Short: "Dump the public API of an SDK release archive",
		Long: "Unpack an SDK release zip, resolve the device build of the framework and " +
			"write its API (or ABI) dump with swift-api-digester.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(cmd, args[0], f)
		},
	}
	fs := cmd.Flags()
	f.abi = addNegatable(fs, "abi", "Generate an ABI dump")
	fs.StringVarP(&f.output, "output-path", "o", "", "Path of the dump to write (default <framework>.json)")
	fs.StringVar(&f.framework, "framework", "", "Framework bundle to dump (default from config)")
	fs.BoolVar(&f.keepWorkdir, "keep-workdir", false, "Keep the unpacked archive for inspection")
	return cmd
}

func (a *app) runDump(cmd *cobra.Command, archive string, f *dumpFlags) error {
	cfg, err := a.loadConfig(map[string]string{"framework": f.framework})
	if err != nil {
		return err
	}
	archive, err = absPath(archive)
	if err != nil {
		return err
	}
	out := f.output
	if out == "" {
		out = cfg.Framework + ".json"
	}
	if out, err = absPath(out); err != nil {
		return err
	}

	ws, b, err := bundle.Locate(archive, cfg.Framework)
	if err != nil {
		return err
	}
	log := logging.WithComponent(a.logger, "dump")
	log.Info().Str("workdir", ws.Dir).Msg("unpacked SDK archive")
	defer func() {
		if f.keepWorkdir {
			log.Info().Str("workdir", ws.Dir).Msg("keeping workdir")
			return
		}
		if err := ws.Close(); err != nil {
			log.Warn().Err(err).Str("workdir", ws.Dir).Msg("removing workdir")
		}
	}()

	d := a.digester(cfg)
	err = d.Dump(cmd.Context(), digester.DumpRequest{
		Bundle:           b,
		DependenciesRoot: ws.ArtifactsDir(),
		OutputPath:       out,
		ABI:              f.abi.override(cmd.Flags()) == "true",
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Wrote %s API dump to %s\n", b.Name, out)
	return nil
}

// digester wires the external tool runner, dependency resolver and config together.
func (a *app) digester(cfg config.Config) *digester.Digester {
	runner := a.newRunner(a.logger)
	return &digester.Digester{
		Runner:   runner,
		Xcrun:    cfg.Xcrun,
		SDK:      cfg.SDK,
		Platform: cfg.Platform,
		Deps: &deps.Resolver{
			Runner: runner,
			Xcrun:  cfg.Xcrun,
			Logger: logging.WithComponent(a.logger, "deps"),
		},
		Logger: logging.WithComponent(a.logger, "digester"),
	}
}
