package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/packforge/packforge"
	"github.com/packforge/packforge/internal/bundler"
	"github.com/packforge/packforge/internal/cli"
	"github.com/packforge/packforge/internal/scaffold"
	"github.com/packforge/packforge/internal/storage"
)

var (
	verbose    bool
	quiet      bool
	projectDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "packforge",
	Short: "packforge - publish UI component packs with import maps",
	Long: `packforge compiles each component of a pack into an independently
loadable browser module, bundles the shared framework runtime and detected
dependencies exactly once, and generates the import map that lets the
browser's own module loader wire everything together.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; flags and real env win.
		_ = godotenv.Load(filepath.Join(projectDir, ".env"))

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	outDir      string
	storageURL  string
	storagePath string
	upload      bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build and publish the component pack",
	RunE: func(cmd *cobra.Command, args []string) error {
		absProject, err := filepath.Abs(projectDir)
		if err != nil {
			return err
		}

		comps, err := loadComponents(absProject)
		if err != nil {
			return err
		}
		meta, err := loadMetadata(absProject)
		if err != nil {
			return err
		}

		out := outDir
		if out == "" {
			out = filepath.Join(absProject, ".packforge")
		}

		opts := packforge.Options{
			ProjectDir:      absProject,
			OutDir:          out,
			Components:      comps,
			Metadata:        meta,
			StorageBaseURL:  storageURL,
			StorageBasePath: storagePath,
			Logger:          logger,
		}

		if quiet {
			opts.Progress = cli.LoggerProgress(logger)
		} else {
			cli.Header("Packforge Publish")
			cli.Step("Framework: %s", packforge.Detect(meta))
			opts.Progress = cli.InteractiveProgress()
		}

		if upload {
			uploader, err := storage.NewUploader(storage.Config{
				Endpoint:  os.Getenv("PACKFORGE_R2_ENDPOINT"),
				Region:    os.Getenv("PACKFORGE_R2_REGION"),
				AccessKey: os.Getenv("PACKFORGE_R2_ACCESS_KEY"),
				SecretKey: os.Getenv("PACKFORGE_R2_SECRET_KEY"),
				Bucket:    os.Getenv("PACKFORGE_R2_BUCKET"),
				UseSSL:    true,
				BasePath:  storagePath,
			})
			if err != nil {
				return err
			}
			opts.Transfer = uploader.Func()
		}

		res := packforge.Publish(cmd.Context(), opts)
		if !res.Success {
			return fmt.Errorf("publish failed at %s: %s", res.Stage, res.Message)
		}

		if !quiet {
			for _, o := range res.Outputs {
				cli.File(fmt.Sprintf("%s (%s)", o.Name, bundler.FormatBundleSize(o.Size)))
			}
			cli.Success("Published %d component(s), pack size %s",
				len(res.Outputs), bundler.FormatBundleSize(bundler.BundleSize(out)))
			if res.PackID != "" {
				cli.Step("Pack ID: %s", res.PackID)
			}
		}
		logger.Info("publish finished",
			zap.Int("components", len(res.Outputs)),
			zap.String("packId", res.PackID))
		return nil
	},
}

var initTemplate string

var initCmd = &cobra.Command{
	Use:   "init <directory>",
	Short: "Create a new component pack from a starter template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		absDir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		cli.Header("Packforge Init")
		return scaffold.Run(absDir, initTemplate)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project environment for publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		absProject, err := filepath.Abs(projectDir)
		if err != nil {
			return err
		}
		cli.Header("Packforge Doctor")
		return scaffold.Doctor(absProject)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "structured log output only (no interactive progress)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", ".", "project directory")

	publishCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default <project>/.packforge)")
	publishCmd.Flags().StringVar(&storageURL, "storage-url", os.Getenv("PACKFORGE_STORAGE_URL"), "public base URL of the content store")
	publishCmd.Flags().StringVar(&storagePath, "storage-path", os.Getenv("PACKFORGE_STORAGE_PATH"), "remote path prefix for published artifacts")
	publishCmd.Flags().BoolVar(&upload, "upload", false, "upload artifacts to the content store")

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "react", fmt.Sprintf("starter template (%s)", strings.Join(scaffold.Templates(), ", ")))

	rootCmd.AddCommand(publishCmd, initCmd, doctorCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.Error("%v", err)
		os.Exit(1)
	}
}
