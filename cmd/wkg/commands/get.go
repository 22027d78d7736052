package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/componentry/wkg/config"
	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/fetch"
	"github.com/componentry/wkg/logger"
	"github.com/componentry/wkg/registry"
	"github.com/componentry/wkg/wit"
)

// GetCmd fetches a single package from a registry
var GetCmd = &cobra.Command{
	Use:   "get <namespace>:<name>[@<version>]",
	Short: "Get a package from a registry",
	Long: `Fetch one package from a registry and write it to disk.

The package is specified as <namespace>:<name> plus optional @<version>,
e.g. "wasi:cli" or "wasi:http@0.2.0". Without an explicit version the
latest non-yanked release is fetched.

If the output path ends with '/', a filename based on the package name,
version, and format is appended, e.g. "wasi_cli@0.2.0.wasm".

The default format "auto" detects the output format from the output
filename or the package contents: packages that decode to a WIT interface
package are written as text, everything else stays a raw binary.

Examples:
  wkg get wasi:cli
  wkg get wasi:http@0.2.0 --output deps/
  wkg get wasi:cli -o cli.wit --overwrite
  wkg get my-ns:tool --registry registry.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		formatText, _ := cmd.Flags().GetString("format")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		registryDomain, _ := cmd.Flags().GetString("registry")

		format, err := fetch.ParseFormat(formatText)
		if err != nil {
			return err
		}

		return runGet(cmd.Context(), getOptions{
			packageSpec:    args[0],
			output:         output,
			format:         format,
			overwrite:      overwrite,
			registryDomain: registryDomain,
		})
	},
}

func init() {
	GetCmd.Flags().StringP("output", "o", "./", "Output path; a trailing '/' appends a generated filename")
	GetCmd.Flags().String("format", "auto", "Output format (auto, wasm, wit)")
	GetCmd.Flags().Bool("overwrite", false, "Overwrite any existing output file")
	GetCmd.Flags().String("registry", "", "Registry domain to use, overriding configuration file(s)")
}

type getOptions struct {
	packageSpec    string
	output         string
	format         fetch.Format
	overwrite      bool
	registryDomain string

	// client overrides the configured registry client; used by tests
	client registry.Client
}

// runGet executes the fetch pipeline: parse, resolve, fetch, detect, publish.
// Each stage runs strictly after its predecessor; no stage retries.
func runGet(ctx context.Context, opts getOptions) error {
	spec, err := registry.ParseSpec(opts.packageSpec)
	if err != nil {
		return err
	}

	client := opts.client
	if client == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if opts.registryDomain != "" {
			namespace := spec.Ref.Namespace().String()
			logger.Debugw("Overriding namespace registry", "package", spec.Ref.String(), "registry", opts.registryDomain)
			cfg.SetNamespaceRegistry(namespace, opts.registryDomain)
		}
		client = registry.NewHTTPClient(cfg)
	}

	version, err := registry.ResolveVersion(ctx, client, spec.Ref, spec.Version, func(msg string) {
		pterm.Info.Println(msg)
	})
	if err != nil {
		return err
	}

	pterm.Info.Printfln("Getting %s@%s...", spec.Ref, version)
	release, err := client.GetRelease(ctx, spec.Ref, version)
	if err != nil {
		return errors.Wrap(err, "failed to get release details")
	}
	logger.Debugw("Resolved release", "package", spec.Ref.String(), "version", version.String())

	target := fetch.NewOutputTarget(opts.output)
	tmp, err := fetch.FetchToTemp(ctx, client, spec.Ref, release, target.DestDir())
	if err != nil {
		return err
	}

	effective := fetch.DecideFormat(opts.format, opts.output)
	witText, err := fetch.MaybeDecode(tmp, effective, wit.NewBinaryDecoder())
	if err != nil {
		fetch.DiscardTemp(tmp)
		return err
	}

	finalPath, err := fetch.Publish(tmp, witText, target, spec.Ref, version, opts.overwrite)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("Wrote '%s'", finalPath)
	return nil
}
