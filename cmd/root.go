package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/AnyUserName/imgconv/internal/codec"
	"github.com/AnyUserName/imgconv/internal/convert"
	"github.com/AnyUserName/imgconv/internal/hasher"
	"github.com/AnyUserName/imgconv/internal/report"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	verbose    bool
	quality    int
	reportPath string
)

var rootCmd = &cobra.Command{
	Use:   "imgconv <input-path> <output-path>",
	Short: "Convert raster images between BMP, PPM and JPEG",
	Long: `imgconv loads an image into memory and re-encodes it in another format.

Formats are chosen by file extension (case-sensitive):
  .bmp          24-bit uncompressed BMP
  .ppm          binary PPM (P6)
  .jpg, .jpeg   JPEG

Exit codes: 0 ok, 1 usage, 2 unknown input format, 3 unknown output
format, 4 load failed, 5 save failed.`,
	Version:       version,
	Args:          exactArgs(2),
	RunE:          runConvert,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// helpCmd takes the place of cobra's default help command so that "help"
// stays free as an input path; help is available through --help. Should
// its own name be given as a path, it is converted like any other.
var helpCmd = &cobra.Command{
	Use:    "__help",
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		args = append([]string{cmd.Name()}, args...)
		if err := exactArgs(2)(rootCmd, args); err != nil {
			return err
		}
		return runConvert(cmd, args)
	},
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		printDiagnostic(err)
	}
	return convert.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().IntVarP(&quality, "quality", "q", codec.DefaultJPEGQuality, "JPEG quality 1-100")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "write a JSON conversion report to this path")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	helpCmd.Flags().AddFlagSet(rootCmd.Flags())
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgconv %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// exactArgs is cobra.ExactArgs returning a typed usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &convert.UsageError{Msg: "Usage: " + cmd.UseLine()}
		}
		return nil
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	if quality < 1 || quality > 100 {
		return &convert.UsageError{Msg: fmt.Sprintf("invalid --quality %d: must be 1-100", quality)}
	}
	c := convert.New(convert.Config{
		InputPath:   args[0],
		OutputPath:  args[1],
		JPEGQuality: quality,
		Verbose:     verbose,
		Log:         cmd.ErrOrStderr(),
	})

	res, err := c.Run(cmd.Context())
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := writeReport(reportPath, args[0], args[1], res); err != nil {
			return &convert.SaveError{Path: reportPath, Err: fmt.Errorf("write report: %w", err)}
		}
		logVerbose(cmd, "report: %s", reportPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Successfully converted")
	return nil
}

func writeReport(path, inPath, outPath string, res *convert.Result) error {
	r := report.New()
	r.ElapsedMS = res.Elapsed.Milliseconds()
	r.Image = report.Image{Width: res.Width, Height: res.Height, PixelDigest: res.PixelDigest}

	var err error
	if r.Input, err = describeFile(inPath, res.InputFormat, res.InputSize); err != nil {
		return err
	}
	if r.Output, err = describeFile(outPath, res.OutputFormat, res.OutputSize); err != nil {
		return err
	}
	return report.WriteJSON(r, path)
}

func describeFile(path string, format codec.Format, size int64) (report.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return report.FileInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hash, err := hasher.ContentHashReader(f, 16)
	if err != nil {
		return report.FileInfo{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return report.FileInfo{Path: path, Format: format.String(), Size: size, Hash: hash}, nil
}

// printDiagnostic writes the one-line message for err to stderr.
func printDiagnostic(err error) {
	var usage *convert.UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), usage.Msg)
		return
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "imgconv: %v\n", err)
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(cmd *cobra.Command, format string, args ...any) {
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[imgconv] "+format+"\n", args...)
	}
}
