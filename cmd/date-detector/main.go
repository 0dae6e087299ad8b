package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/goccy/date-detector/server"
)

type option struct {
	Host             string           `description:"specify the host to listen on" long:"host" env:"DATE_DETECTOR_HOST" default:"0.0.0.0"`
	Port             uint16           `description:"specify the port number" long:"port" env:"DATE_DETECTOR_PORT" default:"9060"`
	LogLevel         server.LogLevel  `description:"specify the log level (debug/info/warn/error)" long:"log-level" env:"DATE_DETECTOR_LOG_LEVEL" default:"error"`
	LogFormat        server.LogFormat `description:"specify the log format (console/json)" long:"log-format" env:"DATE_DETECTOR_LOG_FORMAT" default:"console"`
	TimeZone         string           `description:"specify the time zone local dates are interpreted in. if not specified, the process local time zone is used" long:"time-zone" env:"DATE_DETECTOR_TIME_ZONE"`
	Database         string           `description:"specify the database file if required. if not specified, it will be on a temporary file" long:"database" env:"DATE_DETECTOR_DATABASE"`
	CatalogsFromYAML []string         `description:"specify the path to the YAML file that contains catalogs" long:"catalogs-from-yaml"`
	CatalogsFromJSON []string         `description:"specify the path to the JSON file that contains catalogs" long:"catalogs-from-json"`
	EnvFile          string           `description:"specify the .env file to read options from" long:"env-file"`
	Version          bool             `description:"print version" long:"version" short:"v"`
}

type exitCode int

const (
	exitOK    exitCode = 0
	exitError exitCode = 1
)

var (
	version  string
	revision string
)

func main() {
	os.Exit(int(run()))
}

func run() exitCode {
	opt, err := parseOpt(os.Args[1:])
	if err != nil {
		flagsErr, ok := err.(*flags.Error)
		if !ok {
			fmt.Fprintf(os.Stderr, "[date-detector] %v\n", err)
			return exitError
		}
		if flagsErr.Type == flags.ErrHelp {
			return exitOK
		}
		return exitError
	}
	if err := runServer(opt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	return exitOK
}

// parseOpt parses args twice when --env-file is given so that variables from
// the file fill the env-backed options. Flags and the process environment win
// over the file.
func parseOpt(args []string) (option, error) {
	var opt option
	if _, err := flags.NewParser(&opt, flags.Default).ParseArgs(args); err != nil {
		return opt, err
	}
	if opt.EnvFile == "" {
		return opt, nil
	}
	if err := godotenv.Load(opt.EnvFile); err != nil {
		return opt, fmt.Errorf("failed to load %s: %w", opt.EnvFile, err)
	}
	opt = option{}
	if _, err := flags.NewParser(&opt, flags.Default).ParseArgs(args); err != nil {
		return opt, err
	}
	return opt, nil
}

func runServer(opt option) error {
	if opt.Version {
		fmt.Fprintf(os.Stdout, "version: %s (%s)\n", version, revision)
		return nil
	}
	var db server.Storage
	if opt.Database == "" {
		db = server.TempStorage
	} else {
		db = server.FileStorage(opt.Database)
	}
	detectorServer, err := server.New(db)
	if err != nil {
		return err
	}
	if err := detectorServer.SetLogLevel(opt.LogLevel); err != nil {
		return err
	}
	if err := detectorServer.SetLogFormat(opt.LogFormat); err != nil {
		return err
	}
	if err := detectorServer.SetLocation(opt.TimeZone); err != nil {
		return err
	}
	var sources []server.Source
	for _, path := range opt.CatalogsFromYAML {
		sources = append(sources, server.YAMLSource(path))
	}
	for _, path := range opt.CatalogsFromJSON {
		sources = append(sources, server.JSONSource(path))
	}
	if err := detectorServer.Load(sources...); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer detectorServer.Close()

	addr := fmt.Sprintf("%s:%d", opt.Host, opt.Port)
	fmt.Fprintf(os.Stdout, "[date-detector] listening at %s\n", addr)
	if err := detectorServer.Serve(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	fmt.Fprintln(os.Stdout, "[date-detector] shutdown gracefully")
	return nil
}
