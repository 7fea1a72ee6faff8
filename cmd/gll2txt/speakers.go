package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gll2txt/internal/domain"
	"gll2txt/internal/speakers"
	"gll2txt/pkg/log"
)

var speakersCmd = &cobra.Command{
	Use:   "speakers",
	Short: "Manage speaker metadata for GLL files",
}

var (
	setConfigFiles []string
	setSensitivity float64
	setImpedance   float64
	setWeight      float64
	setHeight      float64
	setWidth       float64
	setDepth       float64
)

var speakersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known speakers",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No speakers recorded yet.")
			return nil
		}
		for _, rec := range records {
			flags := ""
			if rec.Skip {
				flags = " [skip]"
			}
			fmt.Printf("%s%s\n    %s\n", rec.SpeakerName, flags, rec.GLLFile)
			if len(rec.ConfigFiles) > 0 {
				fmt.Printf("    configs: %s\n", strings.Join(rec.ConfigFiles, ", "))
			}
		}
		return nil
	},
}

var speakersSetCmd = &cobra.Command{
	Use:   "set <gll-file> <speaker-name>",
	Short: "Create or update the record for a GLL file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		gllFile, name := args[0], args[1]
		rec, err := store.Get(gllFile)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &domain.SpeakerRecord{GLLFile: gllFile}
		}
		rec.SpeakerName = name
		if cmd.Flags().Changed("gll-config") {
			rec.ConfigFiles = setConfigFiles
		}
		applyFloat(cmd, "sensitivity", setSensitivity, &rec.Sensitivity)
		applyFloat(cmd, "impedance", setImpedance, &rec.Impedance)
		applyFloat(cmd, "weight", setWeight, &rec.Weight)
		applyFloat(cmd, "height", setHeight, &rec.Height)
		applyFloat(cmd, "width", setWidth, &rec.Width)
		applyFloat(cmd, "depth", setDepth, &rec.Depth)

		if err := store.Save(*rec); err != nil {
			return err
		}
		fmt.Printf("Saved %s for %s\n", name, gllFile)
		return nil
	},
}

var speakersSkipCmd = &cobra.Command{
	Use:   "skip <gll-file>",
	Short: "Exclude a GLL file from batch runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSkip(args[0], true)
	},
}

var speakersUnskipCmd = &cobra.Command{
	Use:   "unskip <gll-file>",
	Short: "Re-include a GLL file in batch runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSkip(args[0], false)
	},
}

var speakersDeleteCmd = &cobra.Command{
	Use:   "delete <gll-file>",
	Short: "Remove the record for a GLL file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return store.Delete(args[0])
	},
}

func init() {
	speakersCmd.AddCommand(speakersListCmd)
	speakersCmd.AddCommand(speakersSetCmd)
	speakersCmd.AddCommand(speakersSkipCmd)
	speakersCmd.AddCommand(speakersUnskipCmd)
	speakersCmd.AddCommand(speakersDeleteCmd)

	flags := speakersSetCmd.Flags()
	flags.StringArrayVar(&setConfigFiles, "gll-config", nil, "GLL configuration file to load before export (repeatable)")
	flags.Float64Var(&setSensitivity, "sensitivity", 0, "Sensitivity in dB")
	flags.Float64Var(&setImpedance, "impedance", 0, "Nominal impedance in ohms")
	flags.Float64Var(&setWeight, "weight", 0, "Weight in kg")
	flags.Float64Var(&setHeight, "height", 0, "Height in mm")
	flags.Float64Var(&setWidth, "width", 0, "Width in mm")
	flags.Float64Var(&setDepth, "depth", 0, "Depth in mm")
}

// openStore opens the speaker database from the current settings.
func openStore() (*speakers.Store, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	logger := log.InitLog(log.ParseLevel(cfg.LogLevel))
	return speakers.Open(cfg.DatabasePath, logger.Sugar())
}

// applyFloat stores a flag value only when the operator passed the flag.
func applyFloat(cmd *cobra.Command, name string, value float64, target **float64) {
	if cmd.Flags().Changed(name) {
		v := value
		*target = &v
	}
}

func setSkip(gllFile string, skip bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.SetSkip(gllFile, skip)
}
