package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/retry"
	"github.com/Lllllllleong/pdfdigest/internal/store"
)

func TestBuildUpdateSeparatesCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	update := buildUpdate(store.Fields{
		models.FieldStatus:    "downloaded",
		models.FieldSize:      int64(10),
		models.FieldCreatedAt: created,
	})

	require.Equal(t, bson.M{
		models.FieldStatus: "downloaded",
		models.FieldSize:   int64(10),
	}, update["$set"])
	require.Equal(t, bson.M{models.FieldCreatedAt: created}, update["$setOnInsert"])
}

func TestBuildUpdateOmitsEmptyOperators(t *testing.T) {
	update := buildUpdate(store.Fields{models.FieldErrorMessage: nil})
	require.Contains(t, update, "$set")
	require.NotContains(t, update, "$setOnInsert")
}

func TestConnectPolicy(t *testing.T) {
	p := ConnectPolicy()
	require.Equal(t, 3, p.MaxAttempts)
	require.Equal(t, 3*time.Second, p.Delay(1))
	require.Equal(t, 3*time.Second, p.Delay(2))
}

func TestOpenReportsUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	policy := retry.Policy{MaxAttempts: 1}
	_, err := Open(ctx, Config{URI: "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200", Database: "db", Collection: "docs"}, policy, nil)
	require.ErrorIs(t, err, store.ErrUnavailable)
}
