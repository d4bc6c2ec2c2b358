package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/synapse/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories without touching access counts",
		Run:   runList,
	}

	cmd.Flags().StringP("tier", "t", "", "Filter by tier: fleeting, short_term, long_term")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	tierStr, _ := cmd.Flags().GetString("tier")
	tier := model.Tier(tierStr)
	if tierStr != "" && !model.ValidTiers[tier] {
		exitErr("list", fmt.Errorf("unknown tier %q", tierStr))
	}

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	entries := m.List(tier)
	if len(entries) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
