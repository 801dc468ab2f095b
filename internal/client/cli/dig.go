package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/dkrasnovs/fieldsync/internal/client/location"
)

const defaultDigRadiusMeters = 100

// setLoc fixes the device position used by an argument-less checkdig.
func (a *App) setLoc(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: setloc <lat> <lng>")
		return
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Println("Bad latitude:", args[0])
		return
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Println("Bad longitude:", args[1])
		return
	}
	a.loc = location.NewStaticProvider(lat, lng, 0)
	fmt.Printf("Position set to %.5f, %.5f\n", lat, lng)
}

// checkDig answers "can I dig here?" from the local store only. With no
// coordinates it falls back to the position set via setloc.
func (a *App) checkDig(ctx context.Context, args []string) {
	var lat, lng float64
	var err error

	switch {
	case len(args) >= 2:
		if lat, err = strconv.ParseFloat(args[0], 64); err != nil {
			fmt.Println("Bad latitude:", args[0])
			return
		}
		if lng, err = strconv.ParseFloat(args[1], 64); err != nil {
			fmt.Println("Bad longitude:", args[1])
			return
		}
	case a.loc != nil:
		fix, err := a.loc.Current(ctx)
		if err != nil {
			log.Println(err.Error())
			return
		}
		lat, lng = fix.Latitude, fix.Longitude
	default:
		fmt.Println("Usage: checkdig <lat> <lng> [radius_m]  (or setloc first)")
		return
	}

	radius := float64(defaultDigRadiusMeters)
	if len(args) > 2 {
		if radius, err = strconv.ParseFloat(args[2], 64); err != nil {
			fmt.Println("Bad radius:", args[2])
			return
		}
	}

	verdict, err := a.resolver.Verdict(ctx, lat, lng, radius)
	if err != nil {
		log.Println(err.Error())
	}

	fmt.Printf("%s — %s\n", verdict.State, verdict.Reason)
	if verdict.Ticket != nil {
		id := verdict.Ticket.ServerID
		if id == "" {
			id = verdict.Ticket.OfflineID
		}
		fmt.Printf("Nearest ticket: %s (%.0f m)\n", id, verdict.Distance)
	}
	for _, adv := range verdict.Advisories {
		fmt.Println("!", adv)
	}
}
