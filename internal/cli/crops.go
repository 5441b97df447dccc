package cli

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"agristat/internal/engine"
)

func (a *app) cropsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List the crops of the dataset and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard()
			if err != nil {
				return err
			}
			cat := d.Catalogue()

			table := tablewriter.NewWriter(out(cmd))
			table.SetHeader([]string{"Crop", "Area", "Production", "Yield"})
			for _, crop := range cat.Crops() {
				table.Append([]string{
					crop,
					strings.Join(cat.ColumnsOfKind(crop, engine.KindArea), ", "),
					strings.Join(cat.ColumnsOfKind(crop, engine.KindProduction), ", "),
					strings.Join(cat.ColumnsOfKind(crop, engine.KindYield), ", "),
				})
			}
			table.Render()
			return nil
		},
	}
}
