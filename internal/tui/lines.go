package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/riskscorer/riskscorer/internal/bridge"
)

const readyPoll = 50 * time.Millisecond

// LineOptions tunes RunLines.
type LineOptions struct {
	// ReadyTimeout bounds how long a query waits for the bridge to accept
	// it. Zero means 30 seconds.
	ReadyTimeout time.Duration
}

// RunLines is the non-interactive Cathedral. Each non-blank line of in is a
// query for the current glyph; transcript entries are written to out as
// they arrive. It returns once in is exhausted and the last answer is in,
// or when ctx is cancelled.
func RunLines(ctx context.Context, client *bridge.Client, in io.Reader, out io.Writer, opts LineOptions) error {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 30 * time.Second
	}

	var mu sync.Mutex
	printf := func(format string, a ...any) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(out, format, a...)
	}

	sub := client.Transcript().Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range sub {
			printf("%s\n", FormatEntry(e))
		}
	}()
	defer func() {
		client.Transcript().Unsubscribe(sub)
		<-printed
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if !waitReady(ctx, client, opts.ReadyTimeout) && ctx.Err() != nil {
			return nil
		}
		if err := client.Send(ctx, query); err != nil {
			printf("! %s\n", bridge.Explain(err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	// Let the final answer arrive before detaching.
	if client.Status().Sending {
		waitReady(ctx, client, opts.ReadyTimeout)
	}
	return nil
}

// waitReady polls until the client can send, ctx ends or timeout passes.
func waitReady(ctx context.Context, client *bridge.Client, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(readyPoll)
	defer poll.Stop()

	for !client.Status().CanSend() {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-poll.C:
		}
	}
	return true
}
