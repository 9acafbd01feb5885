package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/conference"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/http/rest"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/session"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/upload"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	// A .env file is optional; the environment wins over it
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatal(err)
	}

	log.SetLevel(config.Verbosity())
	log.SetHeader("(${short_file}:${line}) ${time_rfc3339} ${level}: ")

	// Check if local reports directory exists, otherwise create one
	stat, err := os.Stat(config.ReportsDir)
	if os.IsNotExist(err) {
		err = os.Mkdir(config.ReportsDir, 0755)
	} else if err == nil && !stat.IsDir() {
		err = errors.New(config.ReportsDir + " is not a directory")
	}
	if err != nil {
		log.Fatal(err)
	}

	// Create S3 uploader only if the environment variables are not empty
	var uploader upload.Uploader
	if config.UploadsToS3() {
		uploader, err = upload.NewS3Uploader(context.Background(), upload.S3Config{
			Region:    config.S3Region,
			Bucket:    config.S3Bucket,
			Directory: config.S3Directory,
		})
		if err != nil {
			log.Fatal(err)
		}
	}

	// Initialise LiveKit services
	connector, err := conference.NewConnector(config.LiveKitURL, config.LiveKitKey, config.LiveKitSecret)
	if err != nil {
		log.Fatal(err)
	}
	lksvc, err := conference.NewRoomService(config.LiveKitURL, config.LiveKitKey, config.LiveKitSecret)
	if err != nil {
		log.Fatal(err)
	}

	// Initialise roster sessions
	publisher := session.NewPublisher(config.ReportsDir, uploader, config.Webhooks())
	manager := session.NewManager(connector, publisher, session.WithBufferSize(config.EventBufferSize))

	controller := rest.NewRosterController(
		manager,
		conference.NewModerator(lksvc),
		conference.NewWebhookReceiver(config.LiveKitKey, config.LiveKitSecret),
	)

	// Initialise server
	e := echo.New()
	e.HideBanner = true
	e.Validator = rest.NewValidator()

	// Attach middlewares
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "(${host}) ${time_rfc3339} ${level}: ${method} ${uri} ${status} ${error}\n",
	}))
	e.Use(middleware.Recover())

	// Attach handlers
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Welcome to CGC")
	})
	e.GET("/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	controller.Register(e)

	// Start server
	go func() {
		if err := e.Start(":" + config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	// Stop taking requests, then leave every room and publish its report
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("cannot shut down server | error: %v", err)
	}
	manager.Shutdown(shutdownCtx)
}
