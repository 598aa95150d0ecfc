package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const sequenceKeyPrefix = "civic-billing:seq:"

// raiseSequence sets KEYS[1] to ARGV[1] unless it already holds a larger value.
var raiseSequence = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return current
`)

type redisSequenceRepository struct {
	client *redis.Client
}

// NewSequenceRepository backs sequences with Redis INCR, which is atomic
// across every server instance sharing the Redis database.
func NewSequenceRepository(client *redis.Client) SequenceRepository {
	return &redisSequenceRepository{client: client}
}

func (r *redisSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	return r.client.Incr(ctx, sequenceKeyPrefix+name).Result()
}

// SequenceFloors returns the highest number already issued per sequence,
// read back from the stored bill and payment identifiers.
func SequenceFloors(ctx context.Context, db *sqlx.DB) (map[string]int64, error) {
	var row struct {
		BillNumber  int64 `db:"bill_number"`
		Transaction int64 `db:"transaction_id"`
		Receipt     int64 `db:"receipt_number"`
	}

	query := `
		SELECT
			COALESCE((SELECT MAX(CAST(SUBSTRING(bill_number FROM 5) AS BIGINT)) FROM bills
				WHERE bill_number ~ '^BILL[0-9]+$'), 0) AS bill_number,
			COALESCE((SELECT MAX(CAST(SUBSTRING(transaction_id FROM 4) AS BIGINT)) FROM payments
				WHERE transaction_id ~ '^TXN[0-9]+$'), 0) AS transaction_id,
			COALESCE((SELECT MAX(CAST(SUBSTRING(receipt_number FROM 4) AS BIGINT)) FROM payments
				WHERE receipt_number ~ '^RCP[0-9]+$'), 0) AS receipt_number`

	if err := db.GetContext(ctx, &row, query); err != nil {
		return nil, err
	}

	return map[string]int64{
		SequenceBillNumber:  row.BillNumber,
		SequenceTransaction: row.Transaction,
		SequenceReceipt:     row.Receipt,
	}, nil
}

// SeedSequences raises each Redis counter to the highest number stored in
// postgres. Counters are never lowered, so a flushed Redis resumes after
// the last issued number instead of colliding with it.
func SeedSequences(ctx context.Context, db *sqlx.DB, client *redis.Client) (map[string]int64, error) {
	floors, err := SequenceFloors(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("read sequence floors: %w", err)
	}

	seeded := make(map[string]int64, len(floors))
	for name, floor := range floors {
		value, err := raiseSequence.Run(ctx, client, []string{sequenceKeyPrefix + name}, floor).Int64()
		if err != nil {
			return nil, fmt.Errorf("seed sequence %s: %w", name, err)
		}
		seeded[name] = value
	}

	return seeded, nil
}
