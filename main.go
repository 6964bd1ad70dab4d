package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"tasksync/api"
	"tasksync/config"
	"tasksync/credential"
	"tasksync/domain"
	"tasksync/internal/consts"
	"tasksync/sync"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "login" {
		runLogin(args[1:])
		return
	}

	cfgPath := config.DefaultPath()
	if v := os.Getenv(consts.EnvConfigPath); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	runTail(cfg)
}

// runLogin stores the auth token in the OS keyring.
func runLogin(args []string) {
	if len(args) != 1 || args[0] == "" {
		log.Fatal("usage: tasksync login <token>")
	}
	token := args[0]
	userID, err := api.UserIDFromToken(token)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	if err := credential.SetToken(token); err != nil {
		log.Fatalf("keyring: %v", err)
	}
	log.WithField("user", userID).Info("token stored")
}

// runTail seeds the projection from the REST API, then follows the
// event channel and logs every change until interrupted.
func runTail(cfg *config.Config) {
	token := os.Getenv(consts.EnvToken)
	if token == "" {
		stored, err := credential.Token()
		if err != nil {
			log.Debugf("keyring: %v", err)
		}
		token = stored
	}

	userID := cfg.UserID
	if userID == "" && token != "" {
		derived, err := api.UserIDFromToken(token)
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		userID = derived
	}
	if userID == "" {
		log.Fatal("missing user id: set user_id in config or log in first")
	}

	sess, err := sync.NewSession(sync.Options{
		UserID: userID,
		Token:  token,
		URL:    cfg.WSURL,
		Backoff: sync.Backoff{
			BaseDelay:   cfg.BackoffBase,
			MaxAttempts: cfg.BackoffMaxAttempts,
		},
		OnConnectionChange: func(connected bool) {
			log.WithField("connected", connected).Info("connection state changed")
		},
	})
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tasks, err := client.ListTasks(ctx, userID)
	cancel()
	if err != nil {
		log.WithError(err).Warn("initial fetch failed; starting from events only")
	} else {
		sess.SetTasks(tasks)
		log.WithField("tasks", len(tasks)).Info("projection seeded")
	}

	unsubscribe := sess.Subscribe(func(ev *domain.Event) {
		log.WithFields(log.Fields{
			"event": ev.Type,
			"task":  ev.Payload.TaskID(),
			"total": len(sess.Tasks()),
		}).Info("task list updated")
	})
	sess.Connect()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	unsubscribe()
	sess.Close()
}
