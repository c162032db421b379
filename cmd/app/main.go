package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/config"
	"github.com/BuzzLyutic/task-collab-api/internal/gateway"
	"github.com/BuzzLyutic/task-collab-api/internal/handler"
	authmw "github.com/BuzzLyutic/task-collab-api/internal/middleware"
	"github.com/BuzzLyutic/task-collab-api/internal/notify"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
	"github.com/BuzzLyutic/task-collab-api/internal/service"
	"github.com/BuzzLyutic/task-collab-api/internal/worker"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	taskRepo := repo.NewTaskRepo(pool)
	notifRepo := repo.NewNotificationRepo(pool)
	dailyRepo := repo.NewDailyUpdateRepo(pool)

	// Шлюз реального времени - явная зависимость, без глобального состояния
	hub := gateway.NewHub(logger)
	hub.Start()

	dispatcher := notify.NewDispatcher(notifRepo, hub, logger)
	taskService := service.NewTaskService(taskRepo, dailyRepo, dispatcher, logger)
	notifService := service.NewNotificationService(notifRepo)

	taskHandler := handler.NewTaskHandler(taskService, notifService, logger, cfg.Env == "production")
	notifHandler := handler.NewNotificationHandler(notifService, logger)

	reminders := worker.NewReminderPool(pool, dispatcher, logger, cfg.ReminderWorkers)
	reminders.Start(context.Background())

	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authmw.Auth(cfg.JWTSecret))

		r.Post("/create", taskHandler.Create)
		r.Get("/getAllTasks", taskHandler.List)
		r.Post("/updateTask/{id}", taskHandler.Update)
		r.Get("/getAllTasksCount", taskHandler.Stats)

		r.Post("/createTaskDailyUpdate", taskHandler.CreateDailyUpdate)
		r.Get("/getAllDailyTaskUpdate", taskHandler.ListDailyUpdates)
		r.Get("/tickets/filter", taskHandler.FilterDailyUpdates)
		r.Post("/UpdateTaskDailyUpdate", taskHandler.UpdateDailyUpdate)
		r.Delete("/DeleteTaskDailyUpdate/{id}", taskHandler.DeleteDailyUpdate)

		r.Get("/getAllNotifications", notifHandler.List)
		r.Post("/updateNotification", notifHandler.MarkSeen)

		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			user, ok := authmw.UserFrom(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			hub.ServeWS(w, r, user.ID)
		})
	})

	srv := http.Server{ // Создаем сервер
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Read/WriteTimeout здесь нельзя - они убивают долгоживущие
		// websocket-соединения
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}

	reminders.Stop()
	hub.Stop()
	logger.Info("Server stopped succsessfully!")
}
