package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/izv-data/internal/accident"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the record schema as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		doc := struct {
			Fields      []accident.Field  `yaml:"fields"`
			RegionField string            `yaml:"region_field"`
			Regions     []accident.Region `yaml:"regions"`
		}{accident.Schema, accident.RegionField, accident.Regions}
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "encode schema")
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
