package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/commands/demo"
	"github.com/jeremyschulman/slackapptk/commands/ping"
	"github.com/jeremyschulman/slackapptk/sessions"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "server",
		Aliases: []string{"serve"},
		Short:   "Run the app server",
		Long:    `Run the app server`,
		RunE:    server,
	}
}

func server(cmd *cobra.Command, args []string) error {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store, err := sessions.Open(sessionDialector())
	if err != nil {
		return err
	}

	myApp, err := app.New(app.Config{
		Token:         viper.GetString("slack_oauth_token"),
		SigningSecret: viper.GetString("slack_signing_secret"),
		ListenPort:    listenPort(),
	},
		app.WithLogger(log),
		app.WithSessions(store),
	)
	if err != nil {
		return err
	}

	ping.Register(myApp)
	demo.Register(myApp)

	addr := ":" + myApp.Config.ListenPort
	log.Info().Str("addr", addr).Msg("Listening for Slack requests")
	return http.ListenAndServe(addr, myApp.Handler())
}

// sessionDialector picks the session database from config: MySQL when the
// connection details are set, an on-disk SQLite file otherwise.
func sessionDialector() gorm.Dialector {
	dbHost := viper.GetString("db_host")
	if dbHost == "" {
		dbFile := viper.GetString("db_file")
		if dbFile == "" {
			dbFile = "slackapptk.db"
		}
		return sqlite.Open(dbFile)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		viper.GetString("db_user"),
		viper.GetString("db_pass"),
		dbHost,
		viper.GetString("db_name"),
	)
	return mysql.Open(dsn)
}

func listenPort() string {
	if port := viper.GetString("listen_port"); port != "" {
		return port
	}
	return "3000"
}
