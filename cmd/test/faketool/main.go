package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
)

// faketool stands in for pnpm in manual runs: point readiness or
// activation invocations at it to reproduce exits, timeouts and
// compiler output without a JavaScript toolchain.
type flagOptions struct {
	ExitCode  int           `long:"exit-code" description:"exit code to finish with"`
	Sleep     time.Duration `long:"sleep" description:"how long to run before exiting, e.g. 10s"`
	Stdout    []string      `long:"stdout" description:"line to print on stdout (repeatable)"`
	Stderr    []string      `long:"stderr" description:"line to print on stderr (repeatable)"`
	TSErrors  int           `long:"ts-errors" description:"print this many TypeScript style diagnostics on stderr"`
	IgnoreInt bool          `long:"ignore-interrupt" description:"keep running on SIGINT/SIGTERM"`
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag|flags.IgnoreUnknown)
	args, err := parser.ParseArgs(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("faketool running, args: %v, opts: %+v\n", args, opts)

	for _, line := range opts.Stdout {
		fmt.Println(line)
	}
	for _, line := range opts.Stderr {
		fmt.Fprintln(os.Stderr, line)
	}
	for i := 1; i <= opts.TSErrors; i++ {
		fmt.Fprintf(os.Stderr, "src/file%d.ts(%d,1): error TS2322: Type 'string' is not assignable to type 'number'.\n", i, i)
	}

	if opts.Sleep > 0 {
		sig := make(chan os.Signal, 1)
		if runtime.GOOS == "windows" {
			signal.Notify(sig, os.Interrupt)
		} else {
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		}

		timer := time.NewTimer(opts.Sleep)
		defer timer.Stop()

	wait:
		for {
			select {
			case receivedSignal := <-sig:
				fmt.Printf("faketool received signal: %v\n", receivedSignal)
				if !opts.IgnoreInt {
					os.Exit(130)
				}
			case <-timer.C:
				break wait
			}
		}
	}

	fmt.Printf("faketool done, exit code %d\n", opts.ExitCode)
	os.Exit(opts.ExitCode)
}
