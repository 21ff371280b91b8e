package postgresql

import "github.com/dukex/autoflow/pkg/persistence/sqlbase"

func migrations() []sqlbase.Migration {
	return []sqlbase.Migration{
		{
			Version:     1,
			Description: "create automations",
			SQL: `
				CREATE TABLE automations (
					id VARCHAR(255) PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					type VARCHAR(50) NOT NULL DEFAULT 'automation',
					app_id VARCHAR(255) NOT NULL,
					definition JSONB NOT NULL,
					disabled BOOLEAN NOT NULL DEFAULT false,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_automations_app_id ON automations(app_id);
				CREATE INDEX idx_automations_created_at ON automations(created_at);
				CREATE INDEX idx_automations_deleted_at ON automations(deleted_at);
			`,
		},
		{
			Version:     2,
			Description: "index trigger kinds",
			SQL:         `CREATE INDEX idx_automations_trigger_step ON automations ((definition -> 'trigger' ->> 'stepId'));`,
		},
	}
}
