package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage/database"
	"github.com/trezcool/gradebook/testutil"
)

func TestRun(t *testing.T) {
	t.Run("stops once ctx is done", func(t *testing.T) {
		conf := testutil.Config(t)
		conf.Server.Address = "127.0.0.1:0"
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, run(ctx, conf, logsvc.NewRollbarLogger(io.Discard, conf)))
		// migrations ran even though ctx was already cancelled
		db, err := database.Open(conf)
		require.NoError(t, err)
		defer db.Close()
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM users"))
		assert.Zero(t, n)
	})

	t.Run("setup errors are returned", func(t *testing.T) {
		conf := testutil.Config(t)
		conf.Database.Engine = "mysql"
		err := run(context.Background(), conf, logsvc.NewRollbarLogger(io.Discard, conf))
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "unsupported database engine")
		}
	})
}
