/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package cmd

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/nlnwa/warckit/cmd/warckit/cmd/archivedir"
	"github.com/nlnwa/warckit/cmd/warckit/cmd/cat"
	"github.com/nlnwa/warckit/cmd/warckit/cmd/count"
	"github.com/nlnwa/warckit/cmd/warckit/cmd/ls"
	"github.com/nlnwa/warckit/cmd/warckit/cmd/merge"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	cfgFile      string
	logLevel     string
	logFormatter string
}

// NewCommand returns a new cobra.Command implementing the root command for warckit
func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "warckit",
		Short: "Merge, build and inspect WARC files",
		Long: `warckit merges WARC files into one, archives directories of plain files
as WARC response records and counts the records of WARC files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(viper.GetString("log-level"), viper.GetString("log-formatter"))
		},
	}

	cobra.OnInitialize(func() { c.initConfig() })

	// Flags
	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.warckit.yaml)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&c.logFormatter, "log-formatter", "text", "log formatter: text or json")
	_ = viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-formatter", cmd.PersistentFlags().Lookup("log-formatter"))

	// Subcommands
	cmd.AddCommand(merge.NewCommand())
	cmd.AddCommand(archivedir.NewCommand())
	cmd.AddCommand(count.NewCommand())
	cmd.AddCommand(ls.NewCommand())
	cmd.AddCommand(cat.NewCommand())

	return cmd
}

// initConfig reads in config file and ENV variables if set.
func (c *conf) initConfig() {
	if c.cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(c.cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".warckit" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".warckit")
	}

	viper.SetEnvPrefix("warckit")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

func initLogger(level, formatter string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(formatter) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log formatter: %s", formatter)
	}
	return nil
}
