package cli

import (
	"context"
	"fmt"
	"log"
)

// clear wipes the cached entity collections and sync metadata. The mutation
// queue survives: unconfirmed local work is never discarded.
func (a *App) clear(ctx context.Context) {
	n, err := a.queue.PendingCount(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if n > 0 {
		fmt.Printf("Note: %d pending mutation(s) will be kept\n", n)
	}

	answer, err := GetSimpleText(a.reader, "Erase all locally cached data? (yes/no)")
	if err != nil {
		log.Println(err.Error())
		return
	}
	if answer != "yes" {
		fmt.Println("Aborted")
		return
	}

	if err := a.store.ClearAll(ctx); err != nil {
		log.Println(err.Error())
		return
	}
	a.resolver.InvalidateCache()
	fmt.Println("Local data cleared; next sync will be a full pull")
}
