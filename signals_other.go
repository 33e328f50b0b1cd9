//go:build !windows

package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
)

func setupSigusr1Dump() {
	go func() {
		// 'kill -SIGUSR1 $(pidof ydecode)' to dump running goroutines
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGUSR1)
		for range sigs {
			dumpGoroutines("goroutines.prof")
		}
	}()
}

func dumpGoroutines(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		dlog(always, "ERROR dumpGoroutines: could not create file err='%v'", err)
		return
	}
	defer f.Close()

	pprof.Lookup("goroutine").WriteTo(f, 2)
	dlog(always, "Goroutines dumped to %s", filename)
}
