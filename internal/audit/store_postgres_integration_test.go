//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cardfleet/internal/audit"
	"cardfleet/pkg/testutil/containers"
)

func TestPostgresStoreAppend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := audit.NewPostgresStore(pg.DB)

	occurred := time.Now().UTC().Truncate(time.Microsecond)
	events := []audit.Event{
		{
			Action:     audit.ActionBatchCreated,
			Subject:    "BATCH-20250601-0001",
			Detail:     audit.Detail("count", 3),
			Actor:      "admin",
			RequestID:  "req-1",
			OccurredAt: occurred,
		},
		{
			Action:     audit.ActionCardLinked,
			Subject:    "NFC-001",
			OccurredAt: occurred.Add(time.Second),
		},
	}
	for _, event := range events {
		require.NoError(t, store.Append(ctx, event))
	}

	rows, err := pg.DB.QueryContext(ctx, `
		SELECT action, subject, actor, request_id, detail, occurred_at
		FROM audit_events ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var got []audit.Event
	for rows.Next() {
		var e audit.Event
		var action string
		require.NoError(t, rows.Scan(&action, &e.Subject, &e.Actor, &e.RequestID, &e.Detail, &e.OccurredAt))
		e.Action = audit.Action(action)
		e.OccurredAt = e.OccurredAt.UTC()
		got = append(got, e)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, events, got)
}
