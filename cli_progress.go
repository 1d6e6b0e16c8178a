package main

import (
	"fmt"
	"os"

	"github.com/arcadekeep/arcadekeep/internal/capability"
)

// withProgress drains svc's shared progress channel on a background
// goroutine for the duration of fn, printing one line per event unless
// quiet is set. AppServices.Progress is never closed by any pipeline (it
// is reused for the life of the AppServices handle), so draining is done
// with a done-channel rather than ranging until close; any event still
// buffered the instant fn returns is flushed synchronously afterwards.
func withProgress(pc *capability.ProgressChannel, quiet bool, fn func() error) error {
	done := make(chan struct{})

	go func() {
		for {
			select {
			case ev := <-pc.Events:
				printProgressEvent(ev, quiet)
			case <-done:
				return
			}
		}
	}()

	err := fn()
	close(done)

	for {
		select {
		case ev := <-pc.Events:
			printProgressEvent(ev, quiet)
		default:
			return err
		}
	}
}

func printProgressEvent(ev capability.ProgressEvent, quiet bool) {
	if quiet {
		return
	}

	switch ev.Type {
	case capability.EventFileStarted:
		fmt.Fprintf(os.Stderr, "  %s\n", ev.Path)
	case capability.EventBytesUploaded:
		fmt.Fprintf(os.Stderr, "  %s: %s / %s\n", ev.Path, formatSize(ev.BytesDone), formatSize(ev.BytesTotal))
	case capability.EventFileCompleted:
		fmt.Fprintf(os.Stderr, "  done: %s\n", ev.Path)
	case capability.EventFileFailed:
		fmt.Fprintf(os.Stderr, "  failed: %s: %v\n", ev.Path, ev.Error)
	case capability.EventSummary:
		fmt.Fprintf(os.Stderr, "%s\n", ev.Message)
	}
}
