package app

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePool struct{ err error }

func (f fakePool) Ping(_ context.Context) error { return f.err }

func TestBuildReadinessChecks_NotConfigured(t *testing.T) {
	db, red := BuildReadinessChecks(nil, nil)
	assert.Nil(t, db)
	assert.Nil(t, red)
}

func TestBuildReadinessChecks_DB(t *testing.T) {
	db, _ := BuildReadinessChecks(fakePool{}, nil)
	require.NotNil(t, db)
	assert.NoError(t, db(context.Background()))

	db, _ = BuildReadinessChecks(fakePool{err: errors.New("down")}, nil)
	assert.Error(t, db(context.Background()))
}

func TestBuildReadinessChecks_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	_, red := BuildReadinessChecks(nil, rdb)
	require.NotNil(t, red)
	assert.NoError(t, red(context.Background()))

	mr.Close()
	assert.Error(t, red(context.Background()))
}
