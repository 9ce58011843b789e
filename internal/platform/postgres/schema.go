package postgres

// Schema is the subset of the fleet-console schema this service owns or
// mirrors. Serial uniqueness is case-insensitive (upper-cased expression
// index); public token uniqueness is partial so unlinked rows don't collide
// on NULL.
const Schema = `
CREATE TABLE IF NOT EXISTS cards (
    id            UUID PRIMARY KEY,
    serial_number TEXT NOT NULL,
    public_id     TEXT,
    batch_id      TEXT,
    status        TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS cards_serial_number_key
    ON cards (upper(btrim(serial_number)));

CREATE UNIQUE INDEX IF NOT EXISTS cards_public_id_key
    ON cards (public_id) WHERE public_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS members (
    id        UUID PRIMARY KEY,
    full_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vehicles (
    id                UUID PRIMARY KEY,
    label             TEXT NOT NULL DEFAULT '',
    member_id         UUID REFERENCES members (id),
    nfc_serial_number TEXT,
    nfc_card_id       TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS vehicles_nfc_card_id_key
    ON vehicles (nfc_card_id) WHERE nfc_card_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS fulfillment_requests (
    id           UUID PRIMARY KEY,
    member_id    UUID NOT NULL REFERENCES members (id),
    vehicle_id   UUID REFERENCES vehicles (id),
    request_type TEXT NOT NULL,
    status       TEXT NOT NULL,
    notes        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
    id          BIGSERIAL PRIMARY KEY,
    action      TEXT NOT NULL,
    subject     TEXT NOT NULL,
    actor       TEXT NOT NULL DEFAULT '',
    request_id  TEXT NOT NULL DEFAULT '',
    detail      TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMPTZ NOT NULL
);
`
