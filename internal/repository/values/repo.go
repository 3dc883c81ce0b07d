// Package values queries the stored-value vector index. Each data source owns
// one FT index over hashes holding a value, its coordinate, and its embedding.
package values

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// Repo implements the vector value index over rueidis.
type Repo struct {
	client rueidis.Client
}

// New creates a stored-value search repository.
func New(client rueidis.Client) *Repo {
	return &Repo{client: client}
}

// indexName derives the per-data-source FT index name. Dashes are replaced so
// the name stays a single FT token.
func indexName(dataSourceID uuid.UUID) string {
	return fmt.Sprintf("sv:ds_%s:idx", strings.ReplaceAll(dataSourceID.String(), "-", "_"))
}

// Search runs a KNN query against the data source's value index and returns
// the topK nearest stored values with their coordinates.
func (r *Repo) Search(
	ctx context.Context, dataSourceID uuid.UUID, vector []float32, topK int,
) ([]domain.FoundValue, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", topK)

	args := []string{indexName(dataSourceID), queryStr,
		"RETURN", "5", "value", "database", "schema", "table", "column",
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := r.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("search stored values %s: %w", dataSourceID, err)
	}

	return parseSearchResult(raw)
}

// parseSearchResult decodes the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...].
func parseSearchResult(raw []rueidis.RedisMessage) ([]domain.FoundValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	values := make([]domain.FoundValue, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		fieldsArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsArr)

		values = append(values, domain.FoundValue{
			Value:    fields["value"],
			Database: fields["database"],
			Schema:   fields["schema"],
			Table:    fields["table"],
			Column:   fields["column"],
		})
	}
	return values, nil
}

func parseFieldPairs(arr []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, err := arr[i].ToString()
		if err != nil {
			continue
		}
		v, err := arr[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

// vectorToBytes encodes a float32 vector as little-endian bytes for FT PARAMS.
func vectorToBytes(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}
