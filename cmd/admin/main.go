// Command admin sets a user's role directly in the database. It is how the
// first admin is created; after that admins approve workers from the app.
//
//	admin -email boss@example.com -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iliyamo/campaign-tracker/internal/config"
	"github.com/iliyamo/campaign-tracker/internal/database"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/logging"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/repository"
)

func main() {
	email := flag.String("email", "", "email of a registered account")
	role := flag.String("role", string(model.RoleAdmin), "role to assign: admin, worker or new")
	flag.Parse()

	logger := logging.New(os.Stderr, "info")
	if err := run(*email, model.Role(*role), logger); err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
}

func run(email string, role model.Role, logger *logging.Logger) error {
	if email == "" {
		return errors.New("-email is required")
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.DriverMySQL {
		return fmt.Errorf("store driver %q has no persistent data to change", cfg.StoreDriver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	acct, err := repository.NewAccountRepo(db).GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no account registered for %s", email)
	}
	if err != nil {
		return err
	}

	profiles := repository.NewProfileRepo(db)
	if _, _, err := profiles.CreateIfAbsent(ctx, model.UserProfile{
		UID: acct.ID, Email: acct.Email, Name: acct.Name, Phone: acct.Phone, Role: model.RoleNew,
	}); err != nil {
		return err
	}
	if err := profiles.SetRole(ctx, acct.ID, role, role != model.RoleNew); err != nil {
		return err
	}
	logger.WithFields(map[string]interface{}{"uid": acct.ID, "email": acct.Email, "role": role}).Info("role updated")

	// Running servers learn about the change through the shared feed.
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		if err := feed.NewRedis(rdb).Notify(ctx, model.CollectionUsers); err != nil {
			logger.WarnWithErr("change notification failed", err)
		}
	}
	return nil
}
