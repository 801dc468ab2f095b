package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
)

func (a *App) addTimeEntry(ctx context.Context) {

	projectID, err := GetSimpleText(a.reader, "- Project id")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	crewMemberID, err := GetSimpleText(a.reader, "- Crew member id")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	date, err := GetSimpleText(a.reader, "- Date (YYYY-MM-DD)")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	hours, err := GetFloat(a.reader, "- Hours")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	entry := &models.TimeEntry{
		ProjectID:    projectID,
		CrewMemberID: crewMemberID,
		Date:         date,
		Hours:        hours,
	}
	if _, err := a.entities.SaveTimeEntry(ctx, entry); err != nil {
		log.Printf("error: %v", err)
		return
	}

	fmt.Printf("Time entry saved (%s), queued for upload\n", entry.OfflineID)
}

func (a *App) addDailyReport(ctx context.Context) {

	projectID, err := GetSimpleText(a.reader, "- Project id")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	date, err := GetSimpleText(a.reader, "- Date (YYYY-MM-DD)")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	summary, err := GetSimpleText(a.reader, "- Summary")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	report := &models.DailyReport{
		ProjectID: projectID,
		Date:      date,
		Summary:   summary,
	}
	if _, err := a.entities.SaveDailyReport(ctx, report); err != nil {
		log.Printf("error: %v", err)
		return
	}

	fmt.Printf("Daily report saved (%s), queued for upload\n", report.OfflineID)
}

func (a *App) list(ctx context.Context, entityType string) {
	et := models.EntityType(entityType)
	if !et.Valid() {
		fmt.Printf("Unknown type %q. Known types: %v\n", entityType, models.EntityTypes)
		return
	}

	recs, err := a.store.List(ctx, et)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(recs) == 0 {
		fmt.Println("Nothing stored")
		return
	}
	for _, rec := range recs {
		fmt.Printf("%s  updated=%s\n", rec.Key(), rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}
