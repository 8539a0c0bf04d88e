// Copyright (C) 2025  The vigilmail authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/log"
)

const usageText = `
Usage:
  vigilmail [OPTIONS] COMMAND [ARGS]

  Watch mailboxes, classify mails and alert chats.

Version:
  %s

Commands:
  start                          Start the ingestion and dispatch service
  provision SLUG NAME [DOMAIN]   Create a new tenant partition
  code SLUG [EMAIL]              Issue a chat binding code for a tenant

Options:
%s
`

// Version is set at compile-time.
var Version string

func init() {
	viper.SetDefault("log.level", "debug")
}

func main() {
	var configFilename string

	flags := pflag.NewFlagSet("vigilmail", pflag.ContinueOnError)
	flags.StringVarP(&configFilename, "config", "c", "", "Path to a configuration file")
	flags.Usage = printUsage(flags)

	if err := flags.Parse(os.Args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}

		log.Fatal().Err(err).Msg("could not parse flags")
	}

	switch commandName := flags.Arg(1); commandName {
	case "start", "provision", "code":
		setupConfig(configFilename)
		setupLogger()
		printConfig()
		runCommand(commandName, flags.Args()[2:])
	default:
		flags.Usage()
	}
}

type command interface {
	run(args []string) error
}

func runCommand(commandName string, args []string) {
	var (
		cmd command
		err error
	)

	switch commandName {
	case "start":
		cmd, err = newStartCommand()
	case "provision":
		cmd, err = newProvisionCommand()
	case "code":
		cmd, err = newCodeCommand()
	}

	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the application")
	}

	if err := cmd.run(args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func printUsage(flags *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, usageText,
			Version,
			flags.FlagUsages())
	}
}

func setupLogger() {
	levelName := viper.GetString("log.level")

	if err := log.SetLevel(levelName); err != nil {
		log.Fatal().Err(err).Msg("unknown log level")
	}

	log.Info().
		Str("level", levelName).
		Msg("setting log level")
}

func setupConfig(filename string) {
	viper.SetTypeByDefaultValue(true)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("VIGILMAIL")

	if filename != "" {
		readConfig(filename)
	} else {
		log.Info().Msg("no config file provided. using environment only")
	}
}

func readConfig(filename string) {
	log.Info().
		Str("filename", filename).
		Msg("loading configuration")

	viper.SetConfigFile(filename)

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Warn().Err(err).Msg("configuration file missing")
		} else {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
	}
}

func printConfig() {
	keys := viper.AllKeys()
	sort.Strings(keys)

	for _, key := range keys {
		if strings.Contains(key, "token") || strings.Contains(key, "password") {
			log.Debug().Msgf("%s = <redacted>", key)
			continue
		}

		v, _ := json.Marshal(viper.Get(key))
		log.Debug().Msgf("%s = %s", key, v)
	}
}
