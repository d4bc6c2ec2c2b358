package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Retrieve a memory by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	e, ok := m.Get(args[0])
	if !ok {
		exitErr("get", fmt.Errorf("memory %s not found", args[0]))
	}

	// Get counts as a read; keep the bumped access count.
	if err := m.Save(cmd.Context()); err != nil {
		exitErr("save", err)
	}

	b, _ := json.MarshalIndent(e, "", "  ")
	fmt.Println(string(b))
}
