package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadscrew/host/monitor"
	"leadscrew/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device, FIFO or capture file")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Print every status frame, not only changes")
)

func main() {
	flag.Parse()

	fmt.Printf("leadscrew monitor (protocol v%s)\n", protocol.Version)

	src, err := monitor.OpenSource(*device, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()
	fmt.Printf("Listening on %s...\n", src.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var last protocol.Status
	m := monitor.New(src, monitor.Handler{
		OnStatus: func(st *protocol.Status) {
			changed := st.Encoders != last.Encoders || st.Running != last.Running ||
				st.Reverse != last.Reverse || st.Buttons != last.Buttons
			last = *st
			if !changed && !*verbose {
				return
			}
			printStatus(st)
		},
		OnLog: func(l *protocol.Log) {
			fmt.Println(l.Text)
		},
	})

	err = m.Run(ctx)
	stats := m.Stats()
	fmt.Printf("\nframes=%d resyncs=%d bad_crc=%d lost=%d bad_messages=%d\n",
		stats.Frames, stats.Resyncs, stats.BadCRC, stats.Lost, stats.BadMessages)
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printStatus(st *protocol.Status) {
	state := "STOP"
	if st.Running {
		state = "RUN"
	}
	dir := "FWD"
	if st.Reverse {
		dir = "REV"
	}
	fmt.Printf("[%8d ms] enc=%+d/%+d/%+d buttons=%03b %s %s feed=%.3f Hz invalid=%d\n",
		st.UptimeMillis, st.Encoders[0], st.Encoders[1], st.Encoders[2],
		st.Buttons, state, dir, float64(st.FeedMilliHz)/1000, st.InvalidTransitions)
}
