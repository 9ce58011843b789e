package service

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"cardfleet/internal/cards/models"
	dErrors "cardfleet/pkg/domain-errors"
)

var tracer = otel.Tracer("cardfleet/cards")

// Inventory builds the unified card/vehicle view. It is read-only and
// recomputed from scratch on every call:
//
//  1. Normalize every registry serial and every vehicle nfc_serial_number;
//     union the distinct serials.
//  2. Match each serial's card (if any) against vehicles, by normalized
//     serial equality or by public token (card.public_id == nfc_card_id).
//  3. Derive effective status: a registry row is authoritative; a
//     vehicle-only serial is a legacy ASSIGNED card; otherwise UNKNOWN.
//  4. Flag BROKEN_LINK when the registry says ASSIGNED but no vehicle
//     matches, and DOUBLE_LINK when several vehicles match one card.
//
// Output is sorted by normalized serial so identical snapshots produce
// identical views.
func (s *Service) Inventory(ctx context.Context) ([]models.InventoryRow, error) {
	ctx, span := tracer.Start(ctx, "cards.Inventory")
	defer span.End()
	start := time.Now()

	var (
		cards    []*models.Card
		vehicles []models.VehicleBinding
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.cards.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		vehicles, err = s.vehicles.List(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inventory sources")
	}

	cardsBySerial := make(map[string]*models.Card, len(cards))
	for _, c := range cards {
		cardsBySerial[models.NormalizeSerial(c.SerialNumber)] = c
	}

	serials := make(map[string]bool, len(cards)+len(vehicles))
	for serial := range cardsBySerial {
		serials[serial] = true
	}
	for _, v := range vehicles {
		if v.NFCSerialNumber != "" {
			serials[models.NormalizeSerial(v.NFCSerialNumber)] = true
		}
	}

	rows := make([]models.InventoryRow, 0, len(serials))
	brokenLinks := 0
	for serial := range serials {
		row := buildRow(serial, cardsBySerial[serial], vehicles)
		if row.HasAnomaly(models.AnomalyBrokenLink) {
			brokenLinks++
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SerialNumber < rows[j].SerialNumber
	})

	if s.metrics != nil {
		s.metrics.BrokenLinksObserved.Set(float64(brokenLinks))
		s.metrics.InventoryBuildMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}
	span.SetAttributes(
		attribute.Int("inventory.rows", len(rows)),
		attribute.Int("inventory.broken_links", brokenLinks),
	)
	return rows, nil
}

func buildRow(serial string, c *models.Card, vehicles []models.VehicleBinding) models.InventoryRow {
	row := models.InventoryRow{SerialNumber: serial, Status: models.StatusUnknown}

	var matches []models.VehicleBinding
	for _, v := range vehicles {
		if c != nil {
			if v.MatchesCard(c) {
				matches = append(matches, v)
			}
			continue
		}
		if v.NFCSerialNumber != "" && models.NormalizeSerial(v.NFCSerialNumber) == serial {
			matches = append(matches, v)
		}
	}

	if c != nil {
		cardID := c.ID
		row.CardID = &cardID
		row.PublicID = c.PublicID
		row.BatchID = c.BatchID
		row.Status = c.Status
	} else if len(matches) > 0 {
		// Legacy: bound on the vehicle side, never registered. The row's
		// identity is derived only; there is nothing to persist.
		row.Legacy = true
		row.Status = models.StatusAssigned
		row.PublicID = matches[0].NFCCardID
	}

	if len(matches) > 0 {
		vehicleID := matches[0].VehicleID
		row.VehicleID = &vehicleID
		row.VehicleLabel = matches[0].Label
	}

	if row.Status == models.StatusAssigned && len(matches) == 0 {
		row.Anomalies = append(row.Anomalies, models.AnomalyBrokenLink)
	}
	if len(matches) > 1 {
		row.Anomalies = append(row.Anomalies, models.AnomalyDoubleLink)
	}
	return row
}
