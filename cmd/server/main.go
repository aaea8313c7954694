package main

import (
	"flag"
	"os"

	"github.com/Brownie44l1/aquasense/internal/config"
	"github.com/Brownie44l1/aquasense/internal/handlers"
	"github.com/Brownie44l1/aquasense/internal/model"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the JSON config file")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.Level())

	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	loader := model.NewLoader(model.Options{
		ModelDir:          cfg.ModelDir,
		SharedLibraryPath: cfg.OnnxRuntimeLib,
		IntraOpThreads:    cfg.IntraOpThreads,
		InterOpThreads:    cfg.InterOpThreads,
	}, model.DefaultArchitectures())

	catalog, err := loader.Catalog()
	if err != nil {
		log.Warnf("Some models are unavailable: %v", err)
	}
	for _, info := range catalog {
		log.WithFields(log.Fields{
			"model":         info.Name,
			"artifact":      info.Artifact,
			"layout":        info.Layout,
			"custom_layers": len(info.CustomLayers),
		}).Info("Model registered")
	}

	models := model.NewCache(loader)
	defer models.Close()

	for _, name := range cfg.PreloadModels {
		server, err := models.Get(name)
		if err != nil {
			log.Errorf("Failed to preload model: %v", err)
			models.Close()
			os.Exit(1)
		}
		log.Infof("Model loaded: %s (input %v, output %v)", server.Name(), server.Metadata.InputShape, server.Metadata.OutputShape)
	}

	handler := handlers.NewHandler(models, catalog, cfg.MaxUploadBytes())
	router := handlers.NewRouter(handler, log.StandardLogger())

	log.Infof("Server starting on port %s", cfg.Port)
	log.Info("Endpoints:")
	log.Info("  GET  /health             - Health check")
	log.Info("  GET  /models             - Available models and their metrics")
	log.Info("  POST /segment            - Segment an uploaded image (fields: image, model)")
	log.Info("  POST /segment/:artifact  - Download original, mask, overlay or binary as PNG")

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Errorf("Server failed: %v", err)
		models.Close()
		os.Exit(1)
	}
}
