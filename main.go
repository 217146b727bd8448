package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorhub/cache"
	"tutorhub/config"
	"tutorhub/database"
	"tutorhub/routers"
	chatService "tutorhub/services/chat"
	enrollmentService "tutorhub/services/enrollment"
	gamificationService "tutorhub/services/gamification"
	reportingService "tutorhub/services/reporting"
	"tutorhub/utils"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	cfg := config.AppConfig
	db := database.Database.Db

	ledger := gamificationService.NewLedger(db, nil)
	redisClient, err := cache.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Redis unavailable, leaderboard will be served from the database: %v", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		ledger.Store = cache.NewLeaderboard(redisClient)
	}

	enrollments := enrollmentService.New(db, cfg.TutorCapacity)
	enrollments.Points = ledger
	enrollments.HashPassword = enrollmentService.BcryptHash(cfg.SaltRound)
	enrollments.Notifier = &utils.EnrollmentNotifier{
		DB:     db,
		Mailer: utils.NewMailer(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailSenderName),
	}

	chats := chatService.New(db)
	chats.Points = ledger

	scheduler := utils.InitializeSchedulers(ledger)

	app := routers.NewApp(cfg, routers.Deps{
		DB:         db,
		Enrollment: enrollments,
		Chat:       chats,
		Ledger:     ledger,
		Reporting:  reportingService.New(db, cfg.TutorCapacity),
		Relay:      utils.NewFormRelay(cfg.FormRelayURL, time.Duration(cfg.FormRelayTimeoutSec)*time.Second),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
