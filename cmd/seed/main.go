// Seeds a development database with a demo studio's recurring patterns and
// their generated lessons. Refuses to run outside development unless
// explicitly confirmed.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/config"
	"studio-schedule/internal/db"
	"studio-schedule/internal/schedule"
	"studio-schedule/internal/store/postgres"
	"studio-schedule/internal/util"
)

func main() {
	cfg := config.Load()

	env := os.Getenv("APP_ENV")
	confirmed := len(os.Args) > 1 && os.Args[1] == "--confirm"
	if env != "development" && !confirmed {
		log.Fatal("Refusing to seed: set APP_ENV=development or pass --confirm")
	}

	if err := db.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	svc := schedule.NewService(postgres.New(db.DB), cfg.HorizonDays)
	ctx := context.Background()

	studioID := uuid.New()
	teacherA := uuid.New()
	teacherB := uuid.New()
	roomA := uuid.New()
	roomB := uuid.New()
	students := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	monday := util.NextWeekday(util.StartOfDay(time.Now()), time.Monday)

	seeds := []*schedule.CreatePatternInput{
		{
			StudioID:    studioID,
			TeacherID:   teacherA,
			ClassroomID: roomA,
			DayOfWeek:   int(time.Monday),
			StartTime:   "10:00",
			EndTime:     "11:00",
			StartDate:   monday,
			StudentIDs:  students[:2],
			Notes:       "Beginner piano group",
		},
		{
			StudioID:    studioID,
			TeacherID:   teacherA,
			ClassroomID: roomA,
			DayOfWeek:   int(time.Wednesday),
			StartTime:   "16:00",
			EndTime:     "17:30",
			StartDate:   monday,
			StudentIDs:  students[1:],
			Notes:       "Intermediate ensemble",
		},
		{
			StudioID:    studioID,
			TeacherID:   teacherB,
			ClassroomID: roomB,
			DayOfWeek:   int(time.Saturday),
			StartTime:   "09:00",
			EndTime:     "10:00",
			StartDate:   monday,
			StudentIDs:  students[:1],
		},
	}

	for _, in := range seeds {
		p, err := svc.CreatePattern(ctx, in)
		if err != nil {
			log.Fatalf("Failed to seed pattern: %v", err)
		}
		log.Printf("Seeded pattern %s (%s %s-%s)", p.ID, p.DayOfWeek, p.StartTime, p.EndTime)
	}

	log.Printf("Seed complete: studio %s", studioID)
}
