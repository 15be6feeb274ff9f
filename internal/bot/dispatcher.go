package bot

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrUpdatesClosed is returned by Run when the update source goes away
// before ctx is cancelled.
var ErrUpdatesClosed = errors.New("updates channel closed")

// Dispatcher fans updates out to a fixed set of workers. Updates are sharded
// by sender, so one user's messages are handled in arrival order while
// different users proceed in parallel.
type Dispatcher struct {
	workers int
	handle  func(context.Context, tgbotapi.Update)
}

func NewDispatcher(workers int, handle func(context.Context, tgbotapi.Update)) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{workers: workers, handle: handle}
}

// Run consumes updates until ctx is cancelled or the channel is closed, then
// waits for in-flight updates to finish. Cancellation returns nil; a closed
// channel returns ErrUpdatesClosed.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	queues := make([]chan tgbotapi.Update, d.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, 16)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for upd := range q {
				d.handle(ctx, upd)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrUpdatesClosed
			}
			q := queues[shard(senderID(upd), d.workers)]
			select {
			case q <- upd:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func senderID(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.From.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.From.ID
	}
	return 0
}

func shard(id int64, n int) int {
	if id < 0 {
		id = -id
	}
	return int(id % int64(n))
}
