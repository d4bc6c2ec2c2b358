package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/synapse/internal/persist"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a long-term store from JSON",
		Long: "Read a document from stdin (the format produced by export) and replace the " +
			"long-term store with it. Documents with an unknown version are rejected.",
		Run: runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var doc persist.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		exitErr("parse json", err)
	}

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	if err := m.Restore(&doc); err != nil {
		exitErr("import", err)
	}
	if err := m.Save(cmd.Context()); err != nil {
		exitErr("save", err)
	}

	fmt.Printf(`{"ok":true,"entries":%d}`+"\n", len(doc.Entries))
}
