// Command groovycheck runs the black-box scenarios against a Groovy
// execution service and prints a PASS/FAIL report.
//
// Flags:
//
//	-testbed            environment YAML (default: resources/testbeds/local_host.yml)
//	-validation-config  validation YAML (default: resources/validation/validation_config.yml)
//	-run                regexp selecting scenarios by name
//	-reference          run against an in-process reference service
//	-pause              fixed wait used by settle-then-assert scenarios (default: 1s)
//	-log-level          TRACE, DEBUG, INFO, WARN or ERROR
//	-debug              comma-separated debug categories (client,suite,service,config,all)
//
// The process exits with status 1 when any scenario fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/rhuss/groovycheck/pkg/config"
	"github.com/rhuss/groovycheck/pkg/debug"
	"github.com/rhuss/groovycheck/pkg/service"
	"github.com/rhuss/groovycheck/pkg/storage/memory"
	"github.com/rhuss/groovycheck/pkg/suite"
)

func main() {
	failed, err := run(os.Args[1:])
	if err != nil {
		slog.Error("groovycheck failed", "error", err)
		os.Exit(2)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(args []string) (int, error) {
	fs := flag.NewFlagSet("groovycheck", flag.ContinueOnError)
	testbed := fs.String("testbed", "", "environment YAML file")
	validation := fs.String("validation-config", "", "validation YAML file")
	filter := fs.String("run", "", "regexp selecting scenarios to run")
	reference := fs.Bool("reference", false, "run against an in-process reference service")
	pause := fs.Duration("pause", suite.DefaultPause, "fixed wait before settle-then-assert checks")
	logLevel := fs.String("log-level", "INFO", "log level")
	debugCats := fs.String("debug", "", "debug categories")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}

	debug.Init(os.Stderr, *debugCats, *logLevel)

	var re *regexp.Regexp
	if *filter != "" {
		var err error
		if re, err = regexp.Compile(*filter); err != nil {
			return 0, fmt.Errorf("invalid -run pattern: %w", err)
		}
	}

	val, err := config.LoadValidation(*validation)
	if err != nil {
		return 0, fmt.Errorf("loading validation config: %w", err)
	}

	var env *config.Environment
	if *reference {
		endpoint, stop, err := startReference(val)
		if err != nil {
			return 0, err
		}
		defer stop()
		creds := val.Credentials()
		env = &config.Environment{Endpoint: endpoint, Username: creds[0].Username, Password: creds[0].Password}
	} else {
		if env, err = config.LoadEnvironment(*testbed); err != nil {
			return 0, fmt.Errorf("loading testbed: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("running scenarios", "endpoint", env.Endpoint)
	h := suite.NewHarness(env, val, suite.WithPause(*pause))
	results := suite.Run(ctx, h, re)

	newReport(os.Stdout).write(results)
	return suite.Failed(results), ctx.Err()
}

// startReference starts the reference service on a loopback listener with
// the validation users and returns its base URL.
func startReference(val *config.Validation) (string, func(), error) {
	svc, err := service.New(memory.New(10000), nil, service.Config{
		Users:      val.Credentials(),
		SubmitWait: 2 * time.Second,
	})
	if err != nil {
		return "", nil, fmt.Errorf("starting reference service: %w", err)
	}
	srv := httptest.NewServer(svc.Handler())
	slog.Info("reference service started", "url", srv.URL)

	return srv.URL, func() {
		srv.Close()
		svc.Close()
	}, nil
}
