package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				name VARCHAR(255) PRIMARY KEY,
				version INTEGER NOT NULL DEFAULT 0 CHECK (version >= 0),
				description TEXT NOT NULL DEFAULT '',
				extends VARCHAR(255),
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_workflows_extends ON workflows(extends);
		`,
		2: `
			CREATE TABLE run_entries (
				seq BIGSERIAL PRIMARY KEY,
				run_id VARCHAR(255) NOT NULL,
				workflow_name VARCHAR(255) NOT NULL,
				step_id VARCHAR(255) NOT NULL,
				status VARCHAR(20) NOT NULL CHECK (status IN ('started', 'completed', 'failed')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				error TEXT
			);

			CREATE INDEX idx_run_entries_run_id ON run_entries(run_id, seq);
			CREATE INDEX idx_run_entries_workflow_name ON run_entries(workflow_name, seq DESC);
		`,
		3: `
			CREATE TABLE work_state (
				id SMALLINT PRIMARY KEY CHECK (id = 1),
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
