package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	log "github.com/sirupsen/logrus"

	"realworld/internal/config"
	"realworld/internal/storage"
	"realworld/internal/utils"
)

// 迁移命令：按配置连接数据库并创建/更新全部表结构。
// 用法：go run ./cmd/migrate [-config path] [-dry-run] [-confirm] [-gen-secret]
func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "do not write changes, just report missing tables")
	confirm := flag.Bool("confirm", false, "skip interactive confirmation prompt in prod")
	genSecret := flag.Bool("gen-secret", false, "print a random value suitable for jwt.secret and exit")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *genSecret {
		s, err := utils.RandString(48)
		if err != nil {
			log.WithError(err).Fatal("generate secret")
		}
		fmt.Println(s)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	dbCfg := cfg.Database
	// 迁移由本命令显式执行
	dbCfg.AutoMigrate = false
	log.WithFields(log.Fields{"driver": dbCfg.Driver, "dsn": dbCfg.DSNMasked()}).Info("connecting")

	db, err := storage.Open(dbCfg)
	if err != nil {
		log.WithError(err).Fatal("open db")
	}
	defer storage.Close(db)

	missing := make([]string, 0, len(storage.Models()))
	for _, m := range storage.Models() {
		if !db.Migrator().HasTable(m) {
			missing = append(missing, reflect.TypeOf(m).Elem().Name())
		}
	}

	if *dryRun {
		if len(missing) == 0 {
			fmt.Println("Dry run: all tables exist; columns and indexes would be reconciled.")
			return
		}
		fmt.Printf("Dry run: %d tables would be created\n", len(missing))
		for _, name := range missing {
			fmt.Printf(" - %s\n", name)
		}
		return
	}

	if cfg.Env == "prod" && !*confirm {
		fmt.Printf("\nAbout to migrate the %s schema in env=prod (%d new tables).\n", dbCfg.Driver, len(missing))
		fmt.Print("Type 'yes' to continue: ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "yes" {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
	}

	if err := storage.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	log.WithField("created", missing).Info("migration complete")
}
