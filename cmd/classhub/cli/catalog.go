package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/coder/serpent"

	"github.com/classhub/classhub/internal/rbac"
)

// CatalogCommand prints the static role and permission catalog.
func CatalogCommand() *serpent.Command {
	var format string
	return &serpent.Command{
		Use:   "catalog",
		Short: "Print the role and permission catalog",
		Options: serpent.OptionSet{
			{
				Name:        "format",
				Description: "Output format.",
				Flag:        "format",
				Default:     "yaml",
				Value:       serpent.EnumOf(&format, "yaml", "json"),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			return WriteCatalog(inv.Stdout, format)
		},
	}
}

// WriteCatalog renders the catalog in format to w.
func WriteCatalog(w io.Writer, format string) error {
	doc := rbac.Catalog()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "", "yaml":
		body, err := doc.YAML()
		if err != nil {
			return fmt.Errorf("catalog: encode yaml: %w", err)
		}
		_, err = w.Write(body)
		return err
	default:
		return fmt.Errorf("catalog: unsupported format %q", format)
	}
}
