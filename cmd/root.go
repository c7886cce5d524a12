package cmd

import (
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyschulman/slackapptk/conf"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Version: conf.GitVersion,
		Use:     conf.Executable,
		Short:   "slackapptk is a toolkit server for interactive Slack apps",
		Long: `slackapptk is a toolkit server for interactive Slack apps. It verifies
inbound request signatures, classifies each webhook payload into its
interaction kind, and routes slash commands, block actions, modal view
submissions, and external select loads to registered handlers. Slash
commands are parsed with a full CLI grammar, so users get help, version,
and usage errors back as Slack messages.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.OnInitialize(initConfig)
	rootCmd := newRootCmd()
	setupFlags(rootCmd)
	addSubcommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		println(err)
		os.Exit(1)
	}
}

func setupFlags(c *cobra.Command) {
	c.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.slackapptk.yaml)")
	c.MarkPersistentFlagFilename("config")
}

func addSubcommands(c *cobra.Command) {
	c.AddCommand(newVersionCmd())
	c.AddCommand(newServerCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".slackapptk")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		println("Using config file:", viper.ConfigFileUsed())
	}
}
