package main

import (
	"flag"
	_ "net/http/pprof" // register the /debug/pprof handlers
)

func main() {
	withDig := flag.Bool("dig", false, "wire dependencies with the dig container")
	flag.Parse()

	if *withDig {
		startWithDig()
		return
	}
	startManual()
}
