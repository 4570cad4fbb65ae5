// Command profilecharts builds diagnostic charts of shallow profiler sensor
// data: per-profile stacks, paired sensor stacks, bundles and depth
// timelines.
package main

import (
	"flag"
	"log"
	"os"
)

func main() {
	flag.Usage = func() { printUsage(os.Stdout) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	a := newApp(os.Stdout)
	if err := a.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}
