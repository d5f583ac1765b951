package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthcare/admin-dashboard/internal/domain/insurance"
)

var errInvalidSchema = errors.New("schema has invalid fields")

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with insurance card field schemas",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file.json>",
		Short: "Check a field schema the way the company form does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fields, err := decodeSchema(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return validateSchema(cmd.OutOrStdout(), fields)
		},
	})
	return cmd
}

// decodeSchema accepts either a bare field list or a company document with
// a "fields" member.
func decodeSchema(data []byte) ([]insurance.FieldDefinition, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty schema")
	}

	var fields []insurance.FieldDefinition
	if data[0] == '[' {
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode field list: %w", err)
		}
		return fields, nil
	}

	var doc struct {
		Fields []insurance.FieldDefinition `json:"fields"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode company: %w", err)
	}
	return doc.Fields, nil
}

func validateSchema(w io.Writer, fields []insurance.FieldDefinition) error {
	ed := insurance.NewEditor(fields)
	if ed.Validate() {
		fmt.Fprintf(w, "ok: %s\n", ed.CountLabel())
		return nil
	}
	for i, en := range ed.Entries() {
		errs := ed.ErrorFor(en.ID)
		if errs.Key != "" {
			fmt.Fprintf(w, "fields[%d].key: %s\n", i, errs.Key)
		}
		if errs.Type != "" {
			fmt.Fprintf(w, "fields[%d].valueType: %s (got %q)\n", i, errs.Type, en.ValueType)
		}
	}
	return errInvalidSchema
}
