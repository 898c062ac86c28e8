package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dynaform/internal/engine"
	"dynaform/internal/model"
)

func runCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		if err := checkSheet(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d question sheets invalid", failed, len(args))
	}
	return nil
}

func checkSheet(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sheet model.QuestionSheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	_, err = engine.NewForm(&sheet)
	return err
}
