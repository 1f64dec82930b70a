package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pixelfold/imagechat"
	"github.com/pixelfold/imagechat/provider/gemini"
	"github.com/pixelfold/imagechat/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "imagechat",
	Short: "Describe images in natural language and generate them through fal.ai or Gemini, with multi-turn edit chains.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Load .env from the working directory when present.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	viper.SetDefault("data", defaultDataDir())

	rootCmd.PersistentFlags().String("data", defaultDataDir(), "data directory for the session database")
	if err := viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("imagechat")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(modelsCmd, generateCmd, sessionsCmd, clearCmd, setKeyCmd, chatCmd)

	generateCmd.Flags().String("model", "", "model key (defaults to the first registered model)")
	generateCmd.Flags().String("size", "", "image size token, e.g. landscape_4_3")
	generateCmd.Flags().Int("steps", 0, "inference steps")
	generateCmd.Flags().Int("num", 0, "number of images")
	generateCmd.Flags().Bool("no-safety", false, "disable the provider content filter")
	generateCmd.Flags().String("ref", "", "reference image file for image-to-image models")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".imagechat"
	}
	return filepath.Join(home, ".imagechat")
}

// envCredentials resolves API keys from the durable store first, falling back
// to the conventional environment variables.
type envCredentials struct {
	stored imagechat.Credentials
}

func (c *envCredentials) Get(ctx context.Context, backend imagechat.Backend) (string, error) {
	key, err := c.stored.Get(ctx, backend)
	if err != nil || key != "" {
		return key, err
	}
	switch backend {
	case imagechat.BackendFal:
		return os.Getenv("FAL_KEY"), nil
	case imagechat.BackendGemini:
		return os.Getenv("GEMINI_API_KEY"), nil
	}
	return "", nil
}

func (c *envCredentials) Set(ctx context.Context, backend imagechat.Backend, apiKey string) error {
	return c.stored.Set(ctx, backend, apiKey)
}

// newManager wires storage, credentials and dispatchers. The cleanup closes
// the database.
func newManager(ctx context.Context) (*imagechat.Manager, func(), error) {
	dataDir := viper.GetString("data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	kv, err := sqlite.Open(filepath.Join(dataDir, "imagechat.db"))
	if err != nil {
		return nil, nil, err
	}

	manager, err := imagechat.NewManager(ctx, kv,
		imagechat.WithCredentials(&envCredentials{stored: imagechat.NewStoredCredentials(kv)}),
		imagechat.WithRateLimiting(),
	)
	if err != nil {
		_ = kv.Close()
		return nil, nil, err
	}

	// The per-call key from the credential source (stored via set-key, or the
	// environment) reaches the dispatcher on each generation, so it is wired
	// unconditionally.
	dispatcher, err := gemini.New(ctx, "")
	if err != nil {
		_ = kv.Close()
		return nil, nil, err
	}
	manager.RegisterDispatcher(imagechat.BackendGemini, dispatcher)

	return manager, func() { _ = kv.Close() }, nil
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the available generation models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, cleanup, err := newManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		for _, desc := range manager.ListModels() {
			fmt.Printf("%-26s %-14s %s\n", desc.Key, desc.Capability, desc.DisplayName)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate images from a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := newManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		req := imagechat.GenerationRequest{
			Prompt: strings.Join(args, " "),
		}
		req.ModelKey, _ = cmd.Flags().GetString("model")

		if size, _ := cmd.Flags().GetString("size"); size != "" {
			req.Params.ImageSize = imagechat.ImageSize(size)
		}
		req.Params.Steps, _ = cmd.Flags().GetInt("steps")
		req.Params.NumImages, _ = cmd.Flags().GetInt("num")
		if noSafety, _ := cmd.Flags().GetBool("no-safety"); noSafety {
			disabled := false
			req.Params.SafetyChecker = &disabled
		}
		if refPath, _ := cmd.Flags().GetString("ref"); refPath != "" {
			ref, err := imagechat.ReadImageFile(refPath)
			if err != nil {
				return err
			}
			req.ReferenceImage = ref
		}

		result, err := manager.Generate(cmd.Context(), req)
		if err != nil {
			fmt.Fprintln(os.Stderr, imagechat.UserMessage(err))
			return err
		}

		fmt.Printf("%s generated %d image(s):\n", result.Model, len(result.Images))
		for i, img := range result.Images {
			fmt.Printf("  [%d] %s\n", i+1, truncateRef(img.URL))
		}
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List conversation sessions, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, cleanup, err := newManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		for _, session := range manager.Sessions().List() {
			fmt.Printf("%s  %-33s %3d messages  %s\n",
				session.ID, session.Title, len(session.Messages),
				session.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard every session and start a fresh one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, cleanup, err := newManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		session, err := manager.Sessions().ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("cleared; new session %s\n", session.ID)
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key [backend] [api-key]",
	Short: "Store an API key for a backend (fal or gemini)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := newManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		backend := imagechat.Backend(args[0])
		if backend != imagechat.BackendFal && backend != imagechat.BackendGemini {
			return fmt.Errorf("unknown backend %q", args[0])
		}
		if err := manager.SetCredential(cmd.Context(), backend, args[1]); err != nil {
			return err
		}
		fmt.Printf("stored API key for %s\n", backend)
		return nil
	},
}

// truncateRef keeps data URIs from flooding the terminal.
func truncateRef(ref string) string {
	if len(ref) > 96 {
		return ref[:96] + "...(" + fmt.Sprint(len(ref)) + " bytes)"
	}
	return ref
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
