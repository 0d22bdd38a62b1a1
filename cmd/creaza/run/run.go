package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/creaza/ai-service/internal/app"
	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Start the image processing service",
	RunE:  runApp,
}

func init() {
	flags := Cmd.Flags()

	flags.Int("port", config.DefaultPort, "Port to run the server on")
	flags.String("host", config.DefaultHost, "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.String("filesystem-type", "local", "Filesystem type: 'local' or 's3'")
	flags.String("public-dir", "", "Path where static files should be served from")
	flags.Bool("persist-results", false, "Upload pipeline outputs to file storage")
	flags.String("onnx-lib-path", "", "Path to the onnxruntime shared library")

	viper.BindPFlags(flags)
	bindEnvs()
}

func bindEnvs() {
	// Core settings, all under the CREAZA_ prefix. Example: CREAZA_PORT
	viper.BindEnv("port")
	viper.BindEnv("host")
	viper.BindEnv("environment")
	viper.BindEnv("filesystem_type")
	viper.BindEnv("public_dir")
	viper.BindEnv("persist_results")
	viper.BindEnv("onnx_lib_path")

	// S3 bindings. Example: CREAZA_S3_ACCESS_KEY
	viper.BindEnv("s3:::access_key", "CREAZA_S3_ACCESS_KEY")
	viper.BindEnv("s3:::secret_key", "CREAZA_S3_SECRET_KEY")
	viper.BindEnv("s3:::region_name", "CREAZA_S3_REGION_NAME")
	viper.BindEnv("s3:::bucket_name", "CREAZA_S3_BUCKET_NAME")
	viper.BindEnv("s3:::folder", "CREAZA_S3_FOLDER")
	viper.BindEnv("s3:::vanity_url", "CREAZA_S3_VANITY_URL")
	viper.BindEnv("s3:::endpoint_url", "CREAZA_S3_ENDPOINT_URL")

	// External API services (do NOT use the CREAZA_ prefix)
	viper.BindEnv("huggingface:::api_keys", "HF_API_KEYS")
	viper.BindEnv("huggingface:::base_url", "HF_INFERENCE_URL")
	viper.BindEnv("openrouter:::api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter:::base_url", "OPENROUTER_BASE_URL")
}

func runApp(_ *cobra.Command, _ []string) error {
	cfg := config.GetConfig()
	if err := config.CreateHomeDirs(cfg); err != nil {
		return err
	}

	a, err := app.NewApp(cfg,
		app.WithModels(),
		app.WithFileUploader(),
		app.WithTextToImage(),
		app.WithChat(),
	)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}
	srv.SetupRoutes(a)

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("server started",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port))
		errc <- srv.Start()
	}()

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-signalc:
		a.Logger.Info("shutting down")
		return srv.Stop(a.Context())
	}
}
