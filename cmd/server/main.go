package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/config"
	"github.com/navpurush/hostelms/internal/database"
	"github.com/navpurush/hostelms/internal/handler"
	"github.com/navpurush/hostelms/internal/queue"
	"github.com/navpurush/hostelms/internal/repository"
	"github.com/navpurush/hostelms/internal/router"
)

func main() {
	// Local development reads .env; in production the variables come from
	// the runtime environment and the file is simply absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	admins := repository.NewAdminRepo(db)
	students := repository.NewStudentRepo(db)
	rooms := repository.NewRoomRepo(db)
	fees := repository.NewFeeRepo(db)
	visitors := repository.NewVisitorRepo(db)
	mess := repository.NewMessRepo(db)
	courses := repository.NewCourseRepo(db)
	states := repository.NewStateRepo(db)

	h := router.Handlers{
		Health:   handler.NewHealthHandler(db, rdb),
		Auth:     handler.NewAuthHandler(cfg, admins),
		Admins:   handler.NewAdminHandler(cfg, admins),
		Students: handler.NewStudentHandler(students, rooms),
		Rooms:    handler.NewRoomHandler(rooms),
		Fees:     handler.NewFeeHandler(fees),
		Visitors: handler.NewVisitorHandler(visitors, students),
		Mess:     handler.NewMessHandler(mess),
		Lookups:  handler.NewLookupHandler(courses, states),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	// The audit consumer reconnects forever on its own; a broker outage
	// never takes the API down.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
