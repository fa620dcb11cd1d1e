package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/fsonnyboy/medcare/cfg"
	"github.com/fsonnyboy/medcare/internal/auth"
	"github.com/fsonnyboy/medcare/internal/medicine"
	"github.com/fsonnyboy/medcare/internal/permissions"
	"github.com/fsonnyboy/medcare/internal/polling"
	"github.com/fsonnyboy/medcare/pkg/googleauth"
	"github.com/fsonnyboy/medcare/pkg/logger"
	"github.com/fsonnyboy/medcare/pkg/session"
	"github.com/fsonnyboy/medcare/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============
	// config
	// ============
	config, err := cfg.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ApplyFile(config, "config.yaml"); err != nil {
		log.Fatal(err)
	}

	appLog := logger.NewZeroLog(config.AppEnv, "medcare")

	// ============
	// storage + session store
	// ============
	backend, err := buildStorage(ctx, config)
	if err != nil {
		log.Fatal(err)
	}
	store := session.NewStore(backend, appLog)

	// ============
	// google sign-in (optional)
	// ============
	var google auth.GoogleAuthenticator
	if config.Google.ClientID != "" {
		provider, err := googleauth.NewProvider(ctx, googleauth.Config{
			ClientID:     config.Google.ClientID,
			ClientSecret: config.Google.ClientSecret,
			RedirectURL:  config.Google.RedirectURL,
			OpenURL:      openBrowser,
		})
		if err != nil {
			log.Fatal(err)
		}
		google = auth.ProviderAdapter{Provider: provider}
	}

	// ============
	// auth + permissions + polling
	// ============
	manager := auth.NewManager(auth.Config{
		BaseURL:    config.API.BaseURL,
		Timeout:    config.API.Timeout,
		Store:      store,
		Google:     google,
		Logger:     appLog,
		Registerer: prometheus.DefaultRegisterer,
	})

	medClient := medicine.NewClient(manager)
	engine := permissions.NewEngine(manager, medClient, appLog)

	poller := polling.New(manager, polling.Config{
		Interval: config.Polling.Interval,
		Logger:   appLog,
		OnStatusChange: func(oldStatus, newStatus auth.Status) {
			appLog.Info("account status changed",
				logger.Field{Key: "from", Value: string(oldStatus)},
				logger.Field{Key: "to", Value: string(newStatus)},
			)
		},
	})

	manager.OnUserChange(func(user *auth.User) {
		engine.HandleUserChange(user)
		poller.Sync()
	})

	// ============
	// boot
	// ============
	manager.Load(ctx)

	if sess := manager.Session(); sess != nil {
		if err := manager.RefreshUserData(ctx); err != nil {
			appLog.Warn("could not refresh profile", logger.Field{Key: "error", Value: err.Error()})
		}
	}

	printSummary(manager, engine)

	// A pending account with a session keeps the process alive so the
	// poller can report the approval transition. Without a session there is
	// nothing to poll with; approval is only visible after the next sign-in.
	if user := manager.CurrentUser(); user != nil && user.Status == auth.StatusPending {
		if manager.Authenticated() {
			appLog.Info("waiting for account approval", logger.Field{Key: "interval", Value: config.Polling.Interval.String()})
			<-ctx.Done()
		} else {
			fmt.Println("account is pending approval; sign in again once it has been approved")
		}
	}

	poller.Stop()
}

func buildStorage(ctx context.Context, config *cfg.Config) (storage.Storage, error) {
	switch config.Storage.Backend {
	case cfg.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.Storage.RedisAddr,
			Password: config.Storage.RedisPassword,
		})
		err := retry.Do(
			func() error { return client.Ping(ctx).Err() },
			retry.Attempts(5),
			retry.Delay(500*time.Millisecond),
			retry.DelayType(retry.BackOffDelay),
			retry.Context(ctx),
		)
		if err != nil {
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		return storage.NewRedisStorage(client, "medcare:"), nil
	case cfg.StorageMemory:
		return storage.NewMemoryStorage(), nil
	default:
		return storage.NewFileStorage(config.Storage.Dir)
	}
}

func printSummary(manager *auth.Manager, engine *permissions.Engine) {
	user := manager.CurrentUser()
	if user == nil {
		fmt.Println("not signed in")
		return
	}

	fmt.Printf("signed in as %s (%s)\n", user.Username, user.Status)
	fmt.Printf("  can add to cart:      %v\n", engine.CanAddToCart())
	fmt.Printf("  can request medicine: %v\n", engine.CanRequestMedicine())
	if info := engine.RequestLimits(); info != nil {
		fmt.Printf("  %s\n", permissions.RequestLimitMessage(*info))
	}
	if _, msg := engine.ExplainRequestDenial(); msg != "" {
		fmt.Printf("  note: %s\n", msg)
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
