package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustedworkshop/mts/blobstore"
	"github.com/rustedworkshop/mts/config"
	"github.com/rustedworkshop/mts/journal"
	"github.com/rustedworkshop/mts/queue"
	"github.com/rustedworkshop/mts/registry"
	"github.com/rustedworkshop/mts/services"
	"github.com/rustedworkshop/mts/tasks"
	"github.com/rustedworkshop/mts/translator"
	"github.com/rustedworkshop/mts/workers"
)

//go:generate mkdir -p services/docs
//go:generate redoc-cli bundle docs/openapi.yaml
//go:generate cp docs/openapi.yaml services/docs/openapi.yaml
//go:generate mv redoc-static.html services/docs/index.html

// The above logic generates openapi_doc.go as part of the docs package, and
// gives it an endpoint prefix of "docs". To enable these endpoints, you must
// use the "docs" build: go build -tags docs

// Prints usage info.
func usage() {
	fmt.Fprintf(os.Stderr, "%s: usage:\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "%s <config_file> [api|coordinator|worker|janitor|all]\n",
		os.Args[0])
	fmt.Fprintf(os.Stderr, "See README.md for details on config files and roles.\n")
	os.Exit(1)
}

func main() {

	// The first argument is the configuration filename; the optional second
	// argument selects which components this process runs.
	if len(os.Args) < 2 {
		usage()
	}
	configFile := os.Args[1]
	role := "all"
	if len(os.Args) > 2 {
		role = os.Args[2]
	}
	switch role {
	case "api", "coordinator", "worker", "janitor", "all":
	default:
		usage()
	}
	runAPI := role == "api" || role == "all"
	runCoordinator := role == "coordinator" || role == "all"
	runWorker := role == "worker" || role == "all"
	runJanitor := role == "janitor" || role == "all"

	// Read the configuration file.
	log.Printf("Reading configuration from '%s'...\n", configFile)
	b, err := os.ReadFile(configFile)
	if err != nil {
		log.Panicf("Couldn't read %s: %s\n", configFile, err.Error())
	}

	// Initialize our configuration.
	initErr := config.Init(b)
	if initErr != nil {
		log.Panicf("Couldn't initialize the configuration: %s\n", initErr.Error())
	}
	if config.Service.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect the backends each selected component needs.
	var store tasks.Store
	if runAPI || runCoordinator || runJanitor {
		store, err = tasks.NewPGStore(ctx, tasks.PGOptions{
			URL:            config.Database.URL,
			MaxConnections: config.Database.MaxConnections,
		})
		if err != nil {
			log.Panicf("Couldn't connect to the task database: %s\n", err.Error())
		}
		defer store.Close()
	}
	var broker queue.Queue
	if runAPI || runCoordinator || runWorker {
		broker, err = queue.New(queue.Options{URL: config.RabbitMQ.URL})
		if err != nil {
			log.Panicf("Couldn't connect to the message broker: %s\n", err.Error())
		}
		defer broker.Close()
	}
	var fileRegistry registry.Registry
	if runCoordinator || runWorker {
		fileRegistry = registry.New(registry.Options{
			Address:   config.Redis.Address,
			Username:  config.Redis.Username,
			Password:  config.Redis.Password,
			DB:        config.Redis.DB,
			StatusTTL: time.Duration(config.Redis.StatusTTL) * time.Second,
			CacheTTL:  time.Duration(config.Redis.CacheTTL) * time.Second,
		})
		defer fileRegistry.Close()
	}
	var blobs blobstore.Store
	if runAPI || runCoordinator {
		blobs, err = blobstore.New(blobstore.Options{
			Endpoint:  config.ObjectStore.Endpoint,
			Region:    config.ObjectStore.Region,
			AccessKey: config.ObjectStore.AccessKey,
			SecretKey: config.ObjectStore.SecretKey,
			UseSSL:    config.ObjectStore.UseSSL,
		})
		if err != nil {
			log.Panicf("Couldn't connect to the object store: %s\n", err.Error())
		}
	}
	var model translator.Translator
	if runCoordinator || runWorker {
		model = translator.New(translator.Options{
			Model:       config.Translator.Model,
			APIKey:      config.Translator.APIKey,
			BaseURL:     config.Translator.BaseURL,
			MaxAttempts: config.Translator.MaxAttempts,
		})
	}
	if runCoordinator {
		err = journal.Init(config.Service.DataDirectory)
		if err != nil {
			log.Panicf("Couldn't open the translation journal: %s\n", err.Error())
		}
		defer journal.Finalize()
	}

	// Start the selected components.
	group, groupCtx := errgroup.WithContext(ctx)
	var service services.TranslationService
	if runAPI {
		service, err = services.NewPrototype(services.ServiceOptions{
			Store:          store,
			Queue:          broker,
			Blobs:          blobs,
			TaskQueue:      config.RabbitMQ.TaskQueue,
			Bucket:         config.ObjectStore.Bucket,
			UploadPrefix:   config.ObjectStore.UploadPrefix,
			OutputPrefix:   config.ObjectStore.OutputPrefix,
			URLTTL:         time.Duration(config.ObjectStore.URLTTL) * time.Second,
			MaxConnections: config.Service.MaxConnections,
		})
		if err != nil {
			log.Panicf("Couldn't create the service: %s\n", err.Error())
		}
		group.Go(func() error {
			return service.Start(config.Service.Port)
		})
	}
	if runCoordinator {
		coordinator := workers.NewCoordinator(workers.CoordinatorOptions{
			Store:         store,
			Queue:         broker,
			Registry:      fileRegistry,
			Blobs:         blobs,
			Translator:    model,
			TaskQueue:     config.RabbitMQ.TaskQueue,
			FileQueue:     config.RabbitMQ.FileQueue,
			WorkDirectory: config.Service.WorkDirectory,
			PollInterval:  time.Duration(config.Service.PollInterval) * time.Millisecond,
		})
		group.Go(func() error {
			return coordinator.Run(groupCtx)
		})
	}
	if runWorker {
		worker := workers.NewFileWorker(workers.FileWorkerOptions{
			Queue:      broker,
			Registry:   fileRegistry,
			Translator: model,
			FileQueue:  config.RabbitMQ.FileQueue,
			Prefetch:   config.RabbitMQ.Prefetch,
		})
		group.Go(func() error {
			return worker.Run(groupCtx)
		})
	}
	if runJanitor {
		janitor := workers.NewJanitor(workers.JanitorOptions{
			Store:         store,
			WorkDirectory: config.Service.WorkDirectory,
			DeleteAfter:   time.Duration(config.Service.DeleteAfter) * time.Second,
			SweepInterval: time.Duration(config.Service.SweepInterval) * time.Second,
		})
		group.Go(func() error {
			return janitor.Run(groupCtx)
		})
	}

	// Intercept the SIGINT, SIGHUP, SIGTERM, and SIGQUIT signals, shutting down
	// the components as gracefully as possible if they are encountered.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan,
		syscall.SIGINT,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	group.Go(func() error {
		select {
		case <-groupCtx.Done():
		case <-sigChan:
			log.Println("Shutting down")
			cancel()
		}
		if service != nil {
			// Wait for connections to close until the deadline elapses.
			shutdownCtx, done := context.WithTimeout(context.Background(),
				30*time.Second)
			defer done()
			service.Shutdown(shutdownCtx)
		}
		return nil
	})

	err = group.Wait()
	if err != nil {
		log.Println(err.Error())
	}
}
