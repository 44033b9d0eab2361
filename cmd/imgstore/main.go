// Command imgstore is a command-line front-end over the image store
// format: create, list, insert, read, delete, garbage-collect, export, and
// an interactive shell.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nicolasduc/imgstore/internal/config"
	"github.com/nicolasduc/imgstore/internal/shell"
	"github.com/nicolasduc/imgstore/pkg/archive"
	"github.com/nicolasduc/imgstore/pkg/logging"
	"github.com/nicolasduc/imgstore/pkg/store"
)

// colorableStdout returns an io.Writer that renders ANSI color codes
// correctly on Windows consoles (colorable.NewColorableStdout is a no-op
// wrapper elsewhere) and disables color entirely when stdout isn't a
// terminal, so piping `imgstore list` into a file or script stays clean.
func colorableStdout() io.Writer {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	return colorable.NewColorableStdout()
}

const version = "1.0.0"

var (
	logLevel    string
	versionFlag bool
	rootCmd     *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "imgstore",
		Short:         "Manage content-addressed JPEG image stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if versionFlag {
			fmt.Printf("imgstore %s\n", version)
			os.Exit(0)
		}
		return nil
	}

	rootCmd.AddCommand(
		newCreateCmd(),
		newListCmd(),
		newInsertCmd(),
		newReadCmd(),
		newDeleteCmd(),
		newGCCmd(),
		newExportCmd(),
		newShellCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(store.ExitCode(err))
	}
}

// effectiveLogLevel prefers the --log-level flag over the IMGSTORE_LOG_LEVEL
// environment variable.
func effectiveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	return logging.GetLogLevel()
}

func newCreateCmd() *cobra.Command {
	var maxFiles uint32
	var thumbRes, smallRes []uint16
	var configPath string

	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Create a new, empty image store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxFilesVal := maxFiles
			thumb := store.DefaultThumbRes
			small := store.DefaultSmallRes

			if configPath != "" {
				defaults, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("%w: %v", store.ErrInvalidArgument, err)
				}
				if !cmd.Flags().Changed("max-files") && defaults.MaxFiles != 0 {
					maxFilesVal = defaults.MaxFiles
				}
				if !cmd.Flags().Changed("thumb-res") && defaults.ThumbRes != [2]uint16{} {
					thumb = defaults.ThumbRes
				}
				if !cmd.Flags().Changed("small-res") && defaults.SmallRes != [2]uint16{} {
					small = defaults.SmallRes
				}
			}
			if len(thumbRes) == 2 {
				thumb = [2]uint16{thumbRes[0], thumbRes[1]}
			}
			if len(smallRes) == 2 {
				small = [2]uint16{smallRes[0], smallRes[1]}
			}

			s, err := store.Create(args[0], maxFilesVal, thumb, small, logging.NewLogger("create", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Printf("Created %s (max_files=%d)\n", args[0], maxFilesVal)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&maxFiles, "max-files", store.DefaultMaxFiles, "Maximum number of images the store can hold")
	cmd.Flags().Uint16SliceVar(&thumbRes, "thumb-res", nil, "Thumbnail resolution cap, width,height")
	cmd.Flags().Uint16SliceVar(&smallRes, "small-res", nil, "Small resolution cap, width,height")
	cmd.Flags().StringVar(&configPath, "config", "", "JSON-with-comments file providing create defaults")
	return cmd
}

func newListCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List the images in a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[0], store.OpenReadOnly, logging.NewLogger("list", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()

			if jsonOut {
				return s.WriteListJSON(os.Stdout)
			}
			s.WriteListText(colorableStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the listing as JSON")
	return cmd
}

func newInsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert <file> <img_id> <image.jpg>",
		Short: "Insert a JPEG image into the store",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("%w: reading %s: %v", store.ErrIO, args[2], err)
			}

			s, err := store.Open(args[0], store.OpenReadWrite, logging.NewLogger("insert", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Insert(args[1], data); err != nil {
				return err
			}
			fmt.Printf("Inserted %s\n", args[1])
			return nil
		},
	}
	return cmd
}

func newReadCmd() *cobra.Command {
	var resolution string
	cmd := &cobra.Command{
		Use:   "read <file> <img_id> <output.jpg>",
		Short: "Read an image out of the store at a given resolution",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := resolutionAtoi(resolution)
			if err != nil {
				return err
			}

			s, err := store.Open(args[0], store.OpenReadWrite, logging.NewLogger("read", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := s.Read(args[1], res)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[2], data, 0o644); err != nil {
				return fmt.Errorf("%w: writing %s: %v", store.ErrIO, args[2], err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", args[2], len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&resolution, "resolution", "orig", "Resolution: thumb, small, or orig")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <file> <img_id>",
		Short: "Delete an image from the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[0], store.OpenReadWrite, logging.NewLogger("delete", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(args[1]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[1])
			return nil
		},
	}
	return cmd
}

func newGCCmd() *cobra.Command {
	var auditPath string
	cmd := &cobra.Command{
		Use:   "gc <file>",
		Short: "Reclaim space left behind by deleted images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[0], store.OpenReadWrite, logging.NewLogger("gc", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Compact(store.CompactOptions{AuditTrailPath: auditPath}); err != nil {
				return err
			}
			fmt.Println("Compaction complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&auditPath, "audit-trail", "", "Write a bzip2 tar snapshot of live images here before rewriting")
	return cmd
}

func newExportCmd() *cobra.Command {
	var codec string
	cmd := &cobra.Command{
		Use:   "export <file> <archive>",
		Short: "Export every image's original payload into a tar archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codecID, err := archive.ParseCodec(codec)
			if err != nil {
				return fmt.Errorf("%w: %v", store.ErrInvalidArgument, err)
			}

			s, err := store.Open(args[0], store.OpenReadOnly, logging.NewLogger("export", effectiveLogLevel(), os.Stderr))
			if err != nil {
				return err
			}
			defer s.Close()

			return s.Export(args[1], codecID)
		},
	}
	cmd.Flags().StringVar(&codec, "codec", "none", "Compression codec: none, gzip, or bzip2")
	return cmd
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <file>",
		Short: "Open an interactive shell over a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shell.Run(args[0])
		},
	}
}

// resolutionAtoi maps the command line's lowercase resolution names to a
// resolution index; matching is exact, so any other spelling is rejected.
func resolutionAtoi(name string) (int, error) {
	switch name {
	case "thumb", "thumbnail":
		return store.ResThumb, nil
	case "small":
		return store.ResSmall, nil
	case "orig", "original":
		return store.ResOrig, nil
	default:
		return 0, fmt.Errorf("%w: unknown resolution %q", store.ErrResolutions, name)
	}
}
