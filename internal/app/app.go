package app

import (
	"context"

	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/model"
	"github.com/creaza/ai-service/internal/services/background"
	"github.com/creaza/ai-service/internal/services/caption"
	"github.com/creaza/ai-service/internal/services/chat"
	"github.com/creaza/ai-service/internal/services/enhance"
	"github.com/creaza/ai-service/internal/services/filestorage"
	"github.com/creaza/ai-service/internal/services/fileuploader"
	"github.com/creaza/ai-service/internal/services/texttoimage"
	"github.com/creaza/ai-service/pkg/logger"

	"go.uber.org/zap"
)

const uploadWorkers = 10

type App struct {
	config       *config.Config
	ctx          context.Context
	cancelFunc   context.CancelFunc
	models       *model.Manager
	fileuploader *fileuploader.Uploader

	Logger *zap.Logger

	Background  *background.Service
	Caption     *caption.Service
	Enhance     *enhance.Service
	TextToImage *texttoimage.Client
	Chat        *chat.Service
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

// WithModels loads the local inference models and wires every pipeline that
// depends on them.
func WithModels() OptionFunc {
	return func(app *App) error {
		app.models = model.NewManager(app.config, app.Logger)

		app.Background = background.NewService(app.models, app.Logger)
		app.Caption = caption.NewService(app.models, app.Logger)
		app.Enhance = enhance.NewService(app.models, app.Logger)
		return nil
	}
}

func WithFileUploader() OptionFunc {
	return func(app *App) error {
		storage, err := filestorage.NewFileStorage(app.Config())
		if err != nil {
			return err
		}
		app.fileuploader = fileuploader.NewFileUploader(storage, uploadWorkers, app.Logger)
		return nil
	}
}

func WithTextToImage() OptionFunc {
	return func(app *App) error {
		hf := config.HuggingFaceConfig{
			Model:   config.DefaultTextToImageModel,
			BaseUrl: config.DefaultInferenceBaseUrl,
		}
		if app.config.HuggingFace != nil {
			if len(app.config.HuggingFace.APIKeys) > 0 {
				hf.APIKeys = app.config.HuggingFace.APIKeys
			}
			if app.config.HuggingFace.Model != "" {
				hf.Model = app.config.HuggingFace.Model
			}
			if app.config.HuggingFace.BaseUrl != "" {
				hf.BaseUrl = app.config.HuggingFace.BaseUrl
			}
		}

		app.TextToImage = texttoimage.NewClient(hf, app.Logger)
		return nil
	}
}

func WithChat() OptionFunc {
	return func(app *App) error {
		or := config.OpenRouterConfig{BaseUrl: config.DefaultOpenRouterUrl}
		if app.config.OpenRouter != nil {
			if app.config.OpenRouter.APIKey != "" {
				or.APIKey = app.config.OpenRouter.APIKey
			}
			if app.config.OpenRouter.BaseUrl != "" {
				or.BaseUrl = app.config.OpenRouter.BaseUrl
			}
		}

		app.Chat = chat.NewService(or, app.Logger)
		return nil
	}
}

func NewApp(cfg *config.Config, options ...OptionFunc) (*App, error) {
	log, err := logger.NewLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     cfg,
		Logger:     log,
		cancelFunc: cancel,
	}

	// Apply all options
	for _, opt := range options {
		if err := opt(app); err != nil {
			// Continue even if some options fail
			app.Logger.Error("failed to apply option", zap.Error(err))
		}
	}

	return app, nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.fileuploader != nil {
		app.fileuploader.Stop()
	}
	if app.models != nil {
		app.models.Close()
	}
	app.Logger.Sync()
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) Models() *model.Manager {
	return app.models
}

func (app *App) Uploader() *fileuploader.Uploader {
	return app.fileuploader
}
