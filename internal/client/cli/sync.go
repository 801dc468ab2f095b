package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) syncNow(ctx context.Context) {
	if err := a.syncer.Sync(ctx); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Sync complete")
}

func (a *App) pending(ctx context.Context) {
	ms, err := a.queue.ListPending(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(ms) == 0 {
		fmt.Println("No pending mutations")
		return
	}
	for _, m := range ms {
		fmt.Printf("%s  %s %s  retries=%d  created=%s\n",
			m.OfflineID, m.Operation, m.EntityType, m.RetryCount,
			m.ClientCreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func (a *App) failed(ctx context.Context) {
	ms, err := a.queue.ListFailed(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(ms) == 0 {
		fmt.Println("No failed mutations")
		return
	}
	for _, m := range ms {
		fmt.Printf("%s  %s %s  retries=%d  last error: %s\n",
			m.OfflineID, m.Operation, m.EntityType, m.RetryCount, m.LastError)
	}
}

func (a *App) retry(ctx context.Context, offlineID string) {
	if err := a.queue.Retry(ctx, offlineID); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Mutation rejoined the upload queue")
}
