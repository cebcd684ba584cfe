package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/control"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"

	coreControl "github.com/core-tools/hsu-core/pkg/control"
	coreDomain "github.com/core-tools/hsu-core/pkg/domain"
	flags "github.com/jessevdk/go-flags"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type flagOptions struct {
	Address string        `long:"address" default:"localhost" description:"host of the monitor health endpoint"`
	Port    int           `long:"port" description:"port of the monitor health endpoint"`
	Timeout time.Duration `long:"timeout" default:"5s" description:"how long to wait for an answer"`
	Retries int           `long:"retries" default:"3" description:"ping attempts before giving up"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		return 1
	}

	if opts.Port == 0 {
		fmt.Println("Port is required")
		return 1
	}

	zapLogger, err := logging.NewZapAdapter(logging.ZapConfig{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Printf("Logger setup failed: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()
	logger := logging.NewLogger("monitorcli: ", zapLogger.LogFuncs())

	target := fmt.Sprintf("%s:%d", opts.Address, opts.Port)
	conn, err := grpc.Dial(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Errorf("Failed to connect to %s: %v", target, err)
		return 1
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	coreLogger := control.NewCoreLogger(logger)
	retryPingOptions := coreDomain.RetryPingOptions{
		RetryAttempts: opts.Retries,
		RetryInterval: 1 * time.Second,
	}
	err = coreDomain.RetryPing(ctx, coreControl.NewGRPCClientGateway(conn, coreLogger), retryPingOptions, coreLogger)
	if err != nil {
		logger.Errorf("Failed to ping monitor at %s: %v", target, err)
		return 1
	}

	status, err := control.NewGRPCClientGateway(conn, logger).Status(ctx)
	if err != nil {
		logger.Errorf("Failed to get status: %v", err)
		return 1
	}

	fmt.Printf("Status: %s\n", status)
	if !status.Serving {
		return 3
	}
	return 0
}
