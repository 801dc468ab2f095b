package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	mode := "offline"
	if a.watcher.Online() {
		mode = "online"
	}
	return fmt.Sprintf("(%s)", mode)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to fieldsync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("fsync %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: sync, pending, failed, retry <id>, addtime, addreport, list <type>, setloc <lat> <lng>, checkdig [lat lng] [radius_m], clear, exit")

		case "sync":
			a.syncNow(ctx)
		case "pending":
			a.pending(ctx)
		case "failed":
			a.failed(ctx)
		case "retry":
			if len(args) == 0 {
				fmt.Println("Usage: retry <offline-id>")
				continue
			}
			a.retry(ctx, args[0])
		case "addtime":
			a.addTimeEntry(ctx)
		case "addreport":
			a.addDailyReport(ctx)
		case "list":
			if len(args) == 0 {
				fmt.Println("Usage: list <type>")
				continue
			}
			a.list(ctx, args[0])
		case "setloc":
			a.setLoc(args)
		case "checkdig":
			a.checkDig(ctx, args)
		case "clear":
			a.clear(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
