package main

import (
	"github.com/NethermindEth/starkcheck/audit"
	"github.com/NethermindEth/starkcheck/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const greeting = `Starkcheck verifies a persisted Starknet state against its block headers.
`

const (
	configF    = "config"
	verbosityF = "verbosity"
	dbPathF    = "db-path"
	networkF   = "network"
	colourF    = "colour"

	defaultConfig    = ""
	defaultVerbosity = utils.INFO
	defaultDBPath    = ""
	defaultNetwork   = utils.Mainnet
	defaultColour    = true

	configFlagUsage    = "The yaml configuration file."
	verbosityFlagUsage = `Verbosity of the logs. Options:
0 = debug
1 = info
2 = warn
3 = error
`
	dbPathUsage  = "Location of the database files."
	networkUsage = `Available Starknet networks. Options:
1 = mainnet
2 = goerli
3 = goerli2
4 = integration
5 = sepolia
6 = sepolia-integration`
	colourUsage = "Uses colour in the logs."
)

var cfgFile string

func NewCmd(run func(cmd *cobra.Command, cfg *audit.Config) error) *cobra.Command {
	starkcheckCmd := &cobra.Command{
		Use:     "starkcheck [flags]",
		Short:   "Starknet state verification tool.",
		Version: Version,
	}

	starkcheckCmd.Flags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	starkcheckCmd.Flags().Uint8(verbosityF, uint8(defaultVerbosity), verbosityFlagUsage)
	starkcheckCmd.Flags().String(dbPathF, defaultDBPath, dbPathUsage)
	starkcheckCmd.Flags().Uint8(networkF, uint8(defaultNetwork), networkUsage)
	starkcheckCmd.Flags().Bool(colourF, defaultColour, colourUsage)

	starkcheckCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg := new(audit.Config)
		if err := v.Unmarshal(cfg); err != nil {
			return err
		}

		return run(cmd, cfg)
	}

	return starkcheckCmd
}
