package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dynaform/internal/app"
	"dynaform/internal/model"
)

func runSeed(cmd *cobra.Command, args []string) error {
	sheet := demoSheet()

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sheet)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	id, err := a.QuestionSheetService.Create(ctx, sheet)
	if err != nil {
		return fmt.Errorf("seed question sheet: %w", err)
	}
	logger.Info("seeded question sheet", "id", id, "label", sheet.Label, "pages", len(sheet.Pages))
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// demoSheet is a two-page application exercising free, bound, conditional
// and file questions
func demoSheet() *model.QuestionSheet {
	return &model.QuestionSheet{
		Label: "Volunteer Application",
		Pages: []model.Page{
			{
				ID:    "about-you",
				Label: "About You",
				Questions: []model.Question{
					{ID: "first_name", Kind: model.KindText, Label: "First Name", Required: true, ObjectPath: "person", AttributeName: "first_name"},
					{ID: "last_name", Kind: model.KindText, Label: "Last Name", Required: true, ObjectPath: "person", AttributeName: "last_name"},
					{ID: "birth_date", Kind: model.KindDate, Label: "Date of Birth", Style: "mdy", ObjectPath: "person", AttributeName: "birth_date"},
					{
						ID: "marital_status", Kind: model.KindChoice, Label: "Marital Status", Style: "radio", Required: true,
						Choice: &model.ChoiceOptions{Content: "single;Single\nmarried;Married\nwidowed;Widowed"},
					},
					{ID: "spouse_name", Kind: model.KindText, Label: "Spouse Name", Slug: "spouse_name"},
					{
						ID: "languages", Kind: model.KindChoice, Label: "Languages Spoken", Style: model.StyleCheckbox,
						Choice: &model.ChoiceOptions{Content: "en;English\nes;Spanish\nfr;French\nde;German"},
					},
					{ID: "has_children", Kind: model.KindChoice, Label: "Do you have children?", Style: model.StyleYesNo},
					{
						ID: "children_count", Kind: model.KindText, Label: "How many?", Style: "numeric",
						RequiredWhen: &model.Condition{TriggerID: "has_children", Expression: "1"},
					},
				},
			},
			{
				ID:    "contact",
				Label: "Contact",
				Questions: []model.Question{
					{ID: "address1", Kind: model.KindText, Label: "Address", Required: true, ObjectPath: "person.current_address", AttributeName: "address1"},
					{ID: "city", Kind: model.KindText, Label: "City", Required: true, ObjectPath: "person.current_address", AttributeName: "city"},
					{ID: "country", Kind: model.KindText, Label: "Country", Style: "country", ObjectPath: "person.current_address", AttributeName: "country"},
					{ID: "email", Kind: model.KindText, Label: "Email", Style: "email", Required: true, ObjectPath: "person", AttributeName: "email"},
					{ID: "confirm_email", Kind: model.KindText, Label: "Confirm Email", Style: "email"},
					{ID: "emergency_contact", Kind: model.KindText, Label: "Emergency Contact", ObjectPath: "person.emergency_address", AttributeName: "contactName"},
					{ID: "relationship", Kind: model.KindText, Label: "Relationship To You"},
					{ID: "referral", Kind: model.KindText, Label: "How did you hear about us?", ObjectPath: "answer_sheet", AttributeName: "referral_source"},
					{ID: "resume", Kind: model.KindFile, Label: "Resume"},
					{ID: "agree", Kind: model.KindChoice, Label: "I agree to the terms", Style: model.StyleAcceptance, Required: true},
				},
			},
		},
		Conditions: []model.Condition{
			{ID: "spouse", TriggerID: "marital_status", ToggleID: "spouse_name", Expression: "married"},
			{ID: "children", TriggerID: "has_children", ToggleID: "children_count", Expression: "1"},
			{
				ID: "contact-email", TriggerID: "email", ToggleID: "confirm_email", Mode: model.ConditionExpression,
				Expression: `answered && lower(trimspace(response)) != "none"`,
			},
		},
	}
}
