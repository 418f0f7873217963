package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate applies the schema. Safe to call repeatedly.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ClaimTextExhausted is the message claim_text raises when a product has no
// unassigned text left. It is raised with SQLSTATE P0002.
const ClaimTextExhausted = "NO_TEXTS_AVAILABLE"

const schema = `
DO $$ BEGIN
	CREATE TYPE campaign_status AS ENUM ('active', 'paused', 'completed');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

DO $$ BEGIN
	CREATE TYPE assignment_status AS ENUM ('assigned', 'viewed', 'completed');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

CREATE TABLE IF NOT EXISTS campaigns (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	status campaign_status NOT NULL DEFAULT 'active',
	instructions TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status, created_at);

CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	position INT NOT NULL CHECK (position >= 1),
	link TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (campaign_id, position)
);

CREATE TABLE IF NOT EXISTS texts (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	option_number INT NOT NULL CHECK (option_number >= 1),
	is_assigned BOOLEAN NOT NULL DEFAULT false,
	claimed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (product_id, option_number)
);

CREATE INDEX IF NOT EXISTS idx_texts_unassigned ON texts(product_id, option_number) WHERE NOT is_assigned;

CREATE TABLE IF NOT EXISTS user_assignments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	email TEXT NOT NULL,
	status assignment_status NOT NULL DEFAULT 'assigned',
	assigned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	CONSTRAINT user_assignments_campaign_email_key UNIQUE (campaign_id, email),
	CONSTRAINT user_assignments_completed_chk CHECK ((status = 'completed') = (completed_at IS NOT NULL))
);

CREATE TABLE IF NOT EXISTS assignment_texts (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	assignment_id UUID NOT NULL REFERENCES user_assignments(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	text_id UUID NOT NULL UNIQUE REFERENCES texts(id) ON DELETE CASCADE,
	copied_at TIMESTAMPTZ,
	upload_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (assignment_id, product_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	assignment_id UUID NOT NULL REFERENCES user_assignments(id) ON DELETE CASCADE,
	message TEXT NOT NULL,
	type TEXT NOT NULL,
	sent BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_unsent ON notifications(assignment_id) WHERE NOT sent;

-- claim_text reserves one unassigned text of a product in a single statement.
-- Rows locked by a concurrent claim are skipped, the lowest option_number wins.
CREATE OR REPLACE FUNCTION claim_text(p_assignment_id UUID, p_product_id UUID)
RETURNS SETOF texts
LANGUAGE plpgsql
AS $$
BEGIN
	RETURN QUERY
	WITH claimed AS (
		UPDATE texts t
		SET is_assigned = true, claimed_at = now()
		WHERE t.id = (
			SELECT c.id
			FROM texts c
			WHERE c.product_id = p_product_id AND c.is_assigned = false
			ORDER BY c.option_number ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING t.*
	)
	SELECT * FROM claimed;

	IF NOT FOUND THEN
		RAISE EXCEPTION 'NO_TEXTS_AVAILABLE'
			USING ERRCODE = 'P0002',
			      DETAIL = format('product %s, assignment %s', p_product_id, p_assignment_id);
	END IF;
END;
$$;
`
