package cmd

import (
	"fmt"
	"os"
	"strings"

	download "github.com/creaza/ai-service/cmd/creaza/download"
	run "github.com/creaza/ai-service/cmd/creaza/run"
	"github.com/creaza/ai-service/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const creazaPrefix = "CREAZA"

var Cmd = &cobra.Command{
	Use:   "creaza",
	Short: "Creaza AI service CLI",
	Long:  "An image editing backend with local inference pipelines for background editing, captioning and enhancement, plus hosted text-to-image and chat",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix(creazaPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`,
			`.`, `_`,
		))
		viper.AutomaticEnv()

		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		return config.LoadEnvAndConfigFiles()
	},
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("creaza-home", "", "Path to the creaza home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	// Without this, viper will treat every dot (.) in a key as a delimiter
	viper.KeyDelimiter(":::")

	viper.BindPFlag("creaza_home", pflags.Lookup("creaza-home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	Cmd.AddCommand(run.Cmd, download.Cmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
