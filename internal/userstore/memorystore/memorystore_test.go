package memorystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/sessiond/internal/userstore"
	"github.com/patric-chuzhbe/sessiond/internal/userstore/jsonfile"
)

func Test(t *testing.T) {
	t.Run("The base memorystore package test", func(t *testing.T) {
		theStorage, err := New(jsonfile.WithBCryptCost(bcrypt.MinCost))
		require.NoError(t, err)
		require.NotNil(t, theStorage)

		record, err := theStorage.Insert(context.Background(), userstore.Credential{
			Email:    "a@x.com",
			Password: "longenough1",
			Name:     "A",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)

		_, err = theStorage.Insert(context.Background(), userstore.Credential{
			Email:    "a@x.com",
			Password: "longenough1",
			Name:     "A",
		})
		assert.ErrorIs(t, err, userstore.ErrAlreadyExists)

		// Save and Load are no-ops without a backing file.
		err = theStorage.Save(context.Background())
		assert.NoError(t, err)
		err = theStorage.Load(context.Background())
		assert.NoError(t, err)

		_, err = theStorage.Verify(context.Background(), userstore.Credential{
			Email:    "a@x.com",
			Password: "longenough1",
		})
		assert.NoError(t, err)

		err = theStorage.Ping(context.Background())
		assert.NoError(t, err)

		err = theStorage.Close()
		assert.NoError(t, err)
	})
}
