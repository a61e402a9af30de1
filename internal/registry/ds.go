package registry

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/dsbridge/internal/dnskey"
)

// Action is a terminal operation against the delegation's DS list.
type Action string

const (
	// ActionSubmit adds the DS record derived from a DNSKEY.
	ActionSubmit Action = "submit"

	// ActionRetract removes the DS records matching a DNSKEY's keytag.
	ActionRetract Action = "retract"
)

// Result reports the outcome of a submit or retract.
type Result struct {
	Action Action
	KeyTag uint16

	// NoOp is true when the delegation already had the desired state and
	// no write was issued.
	NoOp bool

	// Response is the raw registry response body of the update write,
	// empty for a no-op.
	Response []byte
}

// Submit ensures the delegation record for prefix carries the DS record
// derived from key. When a DS entry with the same keytag already exists the
// call is a no-op; otherwise the DS RDATA is appended and the whole record
// pushed back. Submitting the same key twice leaves exactly one entry.
func (c *Client) Submit(ctx context.Context, prefix string, key *dnskey.Record) (*Result, error) {
	res := &Result{Action: ActionSubmit, KeyTag: key.KeyTag}

	record, err := c.delegation(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if existing, ok := record.FindDS(key.KeyTag); ok {
		c.logger.Info("found existing matching key, no action needed",
			slog.String("prefix", prefix),
			slog.Int("keytag", int(key.KeyTag)),
			slog.String("ds", existing),
		)
		res.NoOp = true
		return res, nil
	}

	record.AddDS(key.DS())

	resp, err := c.Update(ctx, *record)
	if err != nil {
		return nil, err
	}
	res.Response = resp

	c.logger.Info("DS record submitted",
		slog.String("prefix", prefix),
		slog.Int("keytag", int(key.KeyTag)),
	)
	return res, nil
}

// Retract removes every DS record matching key's keytag from the delegation
// record for prefix. When no entry matches the call is a no-op; otherwise
// the whole record is pushed back without them.
func (c *Client) Retract(ctx context.Context, prefix string, key *dnskey.Record) (*Result, error) {
	res := &Result{Action: ActionRetract, KeyTag: key.KeyTag}

	record, err := c.delegation(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if removed := record.RemoveDS(key.KeyTag); removed == 0 {
		c.logger.Info("no matching key found, no action needed",
			slog.String("prefix", prefix),
			slog.Int("keytag", int(key.KeyTag)),
		)
		res.NoOp = true
		return res, nil
	}

	resp, err := c.Update(ctx, *record)
	if err != nil {
		return nil, err
	}
	res.Response = resp

	c.logger.Info("DS record retracted",
		slog.String("prefix", prefix),
		slog.Int("keytag", int(key.KeyTag)),
	)
	return res, nil
}

// delegation fetches the records for prefix and resolves the single one
// whose range equals it.
func (c *Client) delegation(ctx context.Context, prefix string) (*DelegationRecord, error) {
	records, err := c.Delegations(ctx, prefix)
	if err != nil {
		return nil, err
	}

	record, err := FindDelegation(records, prefix)
	if err != nil {
		return nil, fmt.Errorf("resolving delegation for %s: %w", prefix, err)
	}
	return record, nil
}
