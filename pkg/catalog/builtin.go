package catalog

import "github.com/dukex/autoflow/pkg/models"

// Builtin returns a catalog holding the built-in action and trigger definitions.
func Builtin() *Catalog {
	c := New()

	for id, schema := range builtinActions() {
		c.RegisterAction(id, schema)
	}

	for id, schema := range builtinTriggers() {
		c.RegisterTrigger(id, schema)
	}

	return c
}

func builtinActions() map[models.AutomationActionStepID]models.StepSchema {
	return map[models.AutomationActionStepID]models.StepSchema{
		models.ActionCreateRow: {
			Name:        "Create Row",
			Tagline:     "Create a {{inputs.enriched.table.name}} row",
			Icon:        "TableRowAddBottom",
			Description: "Add a row to your database",
			Type:        models.StepTypeAction,
			Features:    map[string]bool{"LOOPING": true},
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"row"}, props{"row": rowProperty("The row to be created")}),
				Outputs: object([]string{"success"}, props{"row": objectProp("The new row"), "id": str("The identifier of the new row"), "success": boolean("Whether the row creation was successful")}),
			},
		},
		models.ActionUpdateRow: {
			Name:        "Update Row",
			Tagline:     "Update a {{inputs.enriched.table.name}} row",
			Icon:        "Refresh",
			Description: "Update a row in your database",
			Type:        models.StepTypeAction,
			Features:    map[string]bool{"LOOPING": true},
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"row", "rowId"}, props{"meta": objectProp("Field metadata"), "row": rowProperty("The row changes"), "rowId": nonEmpty("The identifier of the row to update")}),
				Outputs: object([]string{"success"}, props{"row": objectProp("The updated row"), "id": str("The identifier of the updated row"), "success": boolean("Whether the row update was successful")}),
			},
		},
		models.ActionDeleteRow: {
			Name:        "Delete Row",
			Tagline:     "Delete a {{inputs.enriched.table.name}} row",
			Icon:        "TableRowRemoveCenter",
			Description: "Delete a row from your database",
			Type:        models.StepTypeAction,
			Features:    map[string]bool{"LOOPING": true},
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"tableId", "id"}, props{"tableId": nonEmpty("Table"), "id": nonEmpty("Row ID"), "revision": str("Row revision")}),
				Outputs: object([]string{"success"}, props{"row": objectProp("The deleted row"), "success": boolean("Whether the deletion was successful")}),
			},
		},
		models.ActionSendEmailSMTP: {
			Name:        "Send Email (SMTP)",
			Tagline:     "Send SMTP email to {{inputs.to}}",
			Icon:        "Email",
			Description: "Send an email using SMTP",
			Type:        models.StepTypeAction,
			Schema: models.InputOutputSchema{
				Inputs: object([]string{"to", "from", "subject", "contents"}, props{
					"to":       nonEmpty("Send To"),
					"from":     nonEmpty("Send From"),
					"subject":  str("Email Subject"),
					"contents": str("HTML Contents"),
					"cc":       str("CC"),
					"bcc":      str("BCC"),
				}),
				Outputs: object([]string{"success"}, props{"success": boolean("Whether the email was sent"), "response": objectProp("A response from the email client")}),
			},
		},
		models.ActionExecuteQuery: {
			Name:        "External Data Connector",
			Tagline:     "Execute Data Connector",
			Icon:        "Data",
			Description: "Execute a query in an external data connector",
			Type:        models.StepTypeAction,
			Features:    map[string]bool{"LOOPING": true},
			Schema: models.InputOutputSchema{
				Inputs: object([]string{"query"}, props{"query": {
					Type:       "object",
					Required:   []string{"queryId"},
					Properties: props{"queryId": nonEmpty("Query")},
				}}),
				Outputs: object([]string{"success"}, props{"response": objectProp("The response from the datasource execution"), "success": boolean("Whether the action was successful")}),
			},
		},
		models.ActionQueryRows: {
			Name:        "Query rows",
			Tagline:     "Query rows from {{inputs.enriched.table.name}} table",
			Icon:        "Search",
			Description: "Query rows from the database",
			Type:        models.StepTypeAction,
			Features:    map[string]bool{"LOOPING": true},
			Schema: models.InputOutputSchema{
				Inputs: object([]string{"tableId"}, props{
					"tableId":    nonEmpty("Table"),
					"filters":    objectProp("Filtering"),
					"sortColumn": str("Sort Column"),
					"sortOrder":  {Type: "string", Enum: []any{"", string(models.SortAscending), string(models.SortDescending)}},
					"limit":      {Type: "integer", Minimum: floatPtr(0)},
				}),
				Outputs: object([]string{"success"}, props{"rows": {Type: "array", Items: &models.Property{Type: "object"}}, "success": boolean("Whether the query was successful")}),
			},
		},
		models.ActionLoop: {
			Name:        "Looping",
			Icon:        "Reuse",
			Tagline:     "Loop the block",
			Description: "Loop",
			Type:        models.StepTypeLogic,
			Schema: models.InputOutputSchema{
				Inputs: object([]string{"option"}, props{
					"option":     {Type: "string", Enum: []any{string(models.LoopArray), string(models.LoopString)}},
					"binding":    {Description: "Binding / Value"},
					"iterations": {Type: "integer", Minimum: floatPtr(0)},
					"failure":    str("Failure Condition"),
				}),
				Outputs: object([]string{"success", "iterations"}, props{"items": {Type: "array"}, "iterations": {Type: "integer"}, "success": boolean("Whether the loop was successful")}),
			},
		},
		models.ActionServerLog: {
			Name:        "Backend log",
			Tagline:     "Console log a value in the backend",
			Icon:        "Monitoring",
			Description: "Logs the given text to the server log",
			Type:        models.StepTypeAction,
			Internal:    true,
			Features:    map[string]bool{"LOOPING": true},
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"text"}, props{"text": str("Log")}),
				Outputs: object([]string{"success"}, props{"success": boolean("Whether the action was successful"), "message": str("What was output")}),
			},
		},
		models.ActionBranch: {
			Name:        "Branch",
			Icon:        "Branch3",
			Tagline:     "Branch from this point",
			Description: "Branch from this point",
			Type:        models.StepTypeLogic,
			Schema: models.InputOutputSchema{
				Inputs: object([]string{"branches", "children"}, props{
					"branches": {Type: "array", Items: &models.Property{Type: "object", Required: []string{"name"}, Properties: props{"name": str("Branch name"), "condition": objectProp("Branch condition")}}},
					"children": objectProp("Branch steps"),
				}),
				Outputs: object([]string{"success"}, props{"branchName": str("Branch name"), "status": str("Branch status"), "success": boolean("Whether a branch matched")}),
			},
		},
	}
}

func builtinTriggers() map[models.AutomationTriggerStepID]models.StepSchema {
	rowOutputs := object([]string{"row"}, props{"row": objectProp("The row"), "id": str("Row ID"), "revision": str("Row revision")})

	return map[models.AutomationTriggerStepID]models.StepSchema{
		models.TriggerRowSaved: {
			Name:        "Row Created",
			Event:       "row:save",
			Icon:        "TableRowAddBottom",
			Tagline:     "Row is added to {{inputs.enriched.table.name}}",
			Description: "Fired when a row is added to your database",
			Type:        models.StepTypeTrigger,
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"tableId"}, props{"tableId": nonEmpty("Table")}),
				Outputs: rowOutputs,
			},
		},
		models.TriggerRowUpdated: {
			Name:        "Row Updated",
			Event:       "row:update",
			Icon:        "Refresh",
			Tagline:     "Row is updated in {{inputs.enriched.table.name}}",
			Description: "Fired when a row is updated in your database",
			Type:        models.StepTypeTrigger,
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"tableId"}, props{"tableId": nonEmpty("Table")}),
				Outputs: rowOutputs,
			},
		},
		models.TriggerRowDeleted: {
			Name:        "Row Deleted",
			Event:       "row:delete",
			Icon:        "TableRowRemoveCenter",
			Tagline:     "Row is deleted from {{inputs.enriched.table.name}}",
			Description: "Fired when a row is deleted from your database",
			Type:        models.StepTypeTrigger,
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"tableId"}, props{"tableId": nonEmpty("Table")}),
				Outputs: object([]string{"row"}, props{"row": objectProp("The row that was deleted")}),
			},
		},
		models.TriggerApp: {
			Name:        "App Action",
			Event:       "app:trigger",
			Icon:        "Apps",
			Tagline:     "App Action fired",
			Description: "Trigger an automation from an action inside your app",
			Type:        models.StepTypeTrigger,
			Schema: models.InputOutputSchema{
				Inputs:  object(nil, props{"fields": objectProp("Fields")}),
				Outputs: object([]string{"fields"}, props{"fields": objectProp("Fields submitted from the app frontend")}),
			},
		},
		models.TriggerCron: {
			Name:        "Cron Trigger",
			Event:       "cron:trigger",
			Icon:        "Clock",
			Tagline:     "Cron Trigger ({{inputs.cron}})",
			Description: "Triggers automation on a cron schedule.",
			Type:        models.StepTypeTrigger,
			Schema: models.InputOutputSchema{
				Inputs:  object([]string{"cron"}, props{"cron": nonEmpty("Expression")}),
				Outputs: object([]string{"timestamp"}, props{"timestamp": {Type: "integer", Description: "Timestamp the cron was executed"}}),
			},
		},
		models.TriggerWebhook: {
			Name:        "Webhook",
			Event:       "web:trigger",
			Icon:        "Send",
			Tagline:     "Webhook endpoint is hit",
			Description: "Trigger an automation when a HTTP POST webhook is hit",
			Type:        models.StepTypeTrigger,
			Schema: models.InputOutputSchema{
				Inputs:  object(nil, props{"schemaUrl": str("Schema URL"), "triggerUrl": str("Trigger URL")}),
				Outputs: object([]string{"body"}, props{"body": objectProp("Body of the request which hit the webhook")}),
			},
		},
	}
}

type props = map[string]*models.Property

func object(required []string, properties props) *models.JSONSchema {
	return &models.JSONSchema{
		Type:       "object",
		Required:   required,
		Properties: properties,
	}
}

func str(description string) *models.Property {
	return &models.Property{Type: "string", Description: description}
}

func nonEmpty(title string) *models.Property {
	minLength := 1

	return &models.Property{Type: "string", Title: title, MinLength: &minLength}
}

func boolean(description string) *models.Property {
	return &models.Property{Type: "boolean", Description: description}
}

func objectProp(description string) *models.Property {
	return &models.Property{Type: "object", Description: description}
}

func rowProperty(description string) *models.Property {
	return &models.Property{
		Type:        "object",
		Description: description,
		Required:    []string{"tableId"},
		Properties:  props{"tableId": nonEmpty("Table")},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
